package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/cmplx"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/edaworks/schemsim/pkg/analysis"
	"github.com/edaworks/schemsim/pkg/circuit"
	"github.com/edaworks/schemsim/pkg/device"
	"github.com/edaworks/schemsim/pkg/util"
)

var (
	outDir = flag.String("o", ".", "directory for plot output")
	rFlag  = flag.String("r", "1k", "filter resistance, SI suffixes allowed (4.7k, 1meg)")
	cFlag  = flag.String("c", "100n", "filter capacitance, SI suffixes allowed (100n, 2.2u)")
)

// filterRC parses the -r/-c flags for the RC-based demos.
func filterRC() (float64, float64, error) {
	r, err := util.ParseValue(*rFlag)
	if err != nil {
		return 0, 0, fmt.Errorf("bad -r value %q: %v", *rFlag, err)
	}
	c, err := util.ParseValue(*cFlag)
	if err != nil {
		return 0, 0, fmt.Errorf("bad -c value %q: %v", *cFlag, err)
	}
	if r <= 0 || c <= 0 {
		return 0, 0, fmt.Errorf("-r and -c must be positive")
	}
	return r, c, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: schemsim [-o dir] [-r R] [-c C] <demo>")
	fmt.Fprintln(os.Stderr, "demos:")
	fmt.Fprintln(os.Stderr, "  op         resistor divider operating point")
	fmt.Fprintln(os.Stderr, "  rc         RC low-pass step response (rc.png)")
	fmt.Fprintln(os.Stderr, "  rectifier  half-wave diode rectifier (rectifier.png)")
	fmt.Fprintln(os.Stderr, "  bode       measured RC frequency response (bode.png)")
	fmt.Fprintln(os.Stderr, "  ac         small-signal RC sweep, printed table")
	os.Exit(2)
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
	}

	var err error
	switch flag.Arg(0) {
	case "op":
		err = runOP()
	case "rc":
		err = runRC()
	case "rectifier":
		err = runRectifier()
	case "bode":
		err = runBode()
	case "ac":
		err = runAC()
	default:
		usage()
	}
	if err != nil {
		log.Fatal(err)
	}
}

// runOP solves a 10V divider and prints the node voltages.
func runOP() error {
	ckt := circuit.New()

	top := circuit.Point{X: 0, Y: 0}
	mid := circuit.Point{X: 0, Y: 2}
	bot := circuit.Point{X: 0, Y: 4}

	ckt.Place(device.NewDCVoltageSource("V1", 10), top, bot)
	ckt.Place(device.NewResistor("R1", 1e3), top, mid)
	ckt.Place(device.NewResistor("R2", 1e3), mid, bot)
	ckt.Place(device.NewGround("GND1"), bot)
	ckt.AddProbe(mid, "mid")

	sim := analysis.NewSimulation(ckt)
	if err := sim.OperatingPoint(); err != nil {
		return err
	}

	fmt.Println("Operating Point")
	fmt.Println("===============")
	for _, p := range ckt.Probes() {
		fmt.Printf("V(%s) = %s\n", p.Label, util.FormatValue(sim.ProbeVoltage(p), "V"))
	}
	return nil
}

func buildRC(src *device.VoltageSource, r, c float64) (*circuit.Circuit, *circuit.Probe) {
	ckt := circuit.New()

	in := circuit.Point{X: 0, Y: 0}
	out := circuit.Point{X: 2, Y: 0}
	gnd1 := circuit.Point{X: 0, Y: 2}
	gnd2 := circuit.Point{X: 2, Y: 2}

	ckt.Place(src, in, gnd1)
	ckt.Place(device.NewResistor("R1", r), in, out)
	ckt.Place(device.NewCapacitor("C1", c), out, gnd2)
	ckt.Place(device.NewGround("GND1"), gnd1)
	ckt.AddWire(gnd1, gnd2)

	return ckt, ckt.AddProbe(out, "out")
}

// runRC charges the RC low-pass from a 5V step and plots the exponential
// over five time constants.
func runRC() error {
	r, c, err := filterRC()
	if err != nil {
		return err
	}

	src := device.NewPulseVoltageSource("V1", 0, 5, 0, 1e-9, 1e-9, 1, 2)
	ckt, probe := buildRC(src, r, c)

	stop := 5 * r * c
	sim := analysis.NewSimulation(ckt)
	sim.SetTimeStep(stop / 500)
	sim.SetAdaptive(true, 0.05)

	var pts plotter.XYs
	for sim.Time() < stop {
		if err := sim.TransientStep(); err != nil {
			return err
		}
		pts = append(pts, plotter.XY{X: sim.Time() * 1e3, Y: sim.ProbeVoltage(probe)})
	}

	fmt.Printf("final V(out) = %s after %s\n",
		util.FormatValue(sim.ProbeVoltage(probe), "V"),
		util.FormatValue(sim.Time(), "s"))

	return savePlot("RC Low-Pass Step Response", "time (ms)", "V(out)", pts, "rc.png")
}

// runRectifier drives a diode half-wave rectifier with a 50Hz sine and plots
// the rectified output across the load.
func runRectifier() error {
	ckt := circuit.New()

	in := circuit.Point{X: 0, Y: 0}
	out := circuit.Point{X: 2, Y: 0}
	gnd := circuit.Point{X: 0, Y: 2}
	gnd2 := circuit.Point{X: 2, Y: 2}

	ckt.Place(device.NewSinVoltageSource("V1", 0, 5, 50, 0), in, gnd)
	ckt.Place(device.NewDiode("D1"), in, out)
	ckt.Place(device.NewResistor("RL", 1e3), out, gnd2)
	ckt.Place(device.NewGround("GND1"), gnd)
	ckt.AddWire(gnd, gnd2)
	probe := ckt.AddProbe(out, "out")

	sim := analysis.NewSimulation(ckt)
	sim.SetTimeStep(100e-6)

	var pts plotter.XYs
	for sim.Time() < 60e-3 {
		if err := sim.TransientStep(); err != nil {
			return err
		}
		pts = append(pts, plotter.XY{X: sim.Time() * 1e3, Y: sim.ProbeVoltage(probe)})
	}

	return savePlot("Half-Wave Rectifier", "time (ms)", "V(out)", pts, "rectifier.png")
}

// runBode measures the RC corner the hard way, driving the circuit in the
// time domain at each frequency.
func runBode() error {
	r, c, err := filterRC()
	if err != nil {
		return err
	}

	src := device.NewSinVoltageSource("V1", 0, 1, 1, 0)
	ckt, probe := buildRC(src, r, c) // fc ~ 1.59 kHz at the defaults

	sim := analysis.NewSimulation(ckt)
	points, err := sim.FrequencyResponse(src, probe, 10, 100e3, 25)
	if err != nil {
		return err
	}

	fmt.Println("Frequency Response")
	fmt.Println("==================")
	var pts plotter.XYs
	for _, pt := range points {
		fmt.Printf("%s  %7.2f dB  %7.1f deg\n",
			util.FormatFrequency(pt.Frequency), pt.MagnitudeDB, pt.PhaseDeg)
		pts = append(pts, plotter.XY{X: pt.Frequency, Y: pt.MagnitudeDB})
	}

	return saveLogPlot("RC Low-Pass Bode", "frequency (Hz)", "gain (dB)", pts, "bode.png")
}

// runAC prints a linearized small-signal sweep of the same RC filter.
func runAC() error {
	r, c, err := filterRC()
	if err != nil {
		return err
	}

	src := device.NewDCVoltageSource("V1", 0)
	src.SetAC(1, 0)
	ckt, _ := buildRC(src, r, c)

	sim := analysis.NewSimulation(ckt)
	results, err := sim.ACSweep(10, 100e3, 21, "DEC")
	if err != nil {
		return err
	}

	fmt.Println("AC Analysis Results")
	fmt.Println("===================")
	for _, r := range results {
		fmt.Printf("%-13s", util.FormatFrequency(r.Frequency))
		for name, v := range r.Values {
			mag := cmplx.Abs(v)
			phase := cmplx.Phase(v) * 180 / math.Pi
			fmt.Printf("  %s", util.FormatPhasor(name, mag, phase))
		}
		fmt.Println()
	}
	return nil
}

func savePlot(title, xLabel, yLabel string, pts plotter.XYs, file string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("building plot line: %v", err)
	}
	p.Add(line, plotter.NewGrid())

	path := *outDir + "/" + file
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving %s: %v", path, err)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func saveLogPlot(title, xLabel, yLabel string, pts plotter.XYs, file string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("building plot line: %v", err)
	}
	p.Add(line, plotter.NewGrid())

	path := *outDir + "/" + file
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving %s: %v", path, err)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
