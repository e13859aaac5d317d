// h5inspect walks an HDF5 object tree through the typed layer and prints
// its structure. No native binding is linked in, so without -demo it
// prints a notice and exits with status 2; with -demo it builds a small
// in-memory example tree first, which makes the tool usable for
// smoke-testing the typed layer.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/robert-malhotra/go-h5typed/binding"
	"github.com/robert-malhotra/go-h5typed/h5typed"
	"github.com/robert-malhotra/go-h5typed/internal/membind"
)

var (
	demo     = flag.Bool("demo", false, "build and inspect an in-memory demo tree")
	internal = flag.Bool("internal", false, "include the reserved __DATATYPES__ namespace")
	verbose  = flag.BoolP("verbose", "v", false, "enable debug logging")
)

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if !*demo {
		fmt.Fprintln(os.Stderr, "only -demo mode is available without a native binding")
		os.Exit(2)
	}

	bind := membind.New()
	f, err := buildDemo(bind, logger)
	if err != nil {
		logger.WithError(err).Fatal("building demo tree")
	}
	defer f.Close()

	root := "/"
	if flag.NArg() > 0 {
		root = flag.Arg(0)
	}
	if err := walk(f, root); err != nil {
		logger.WithError(err).Fatal("walking tree")
	}
	if *internal && f.Exists("/__DATATYPES__") {
		if err := walk(f, "/__DATATYPES__"); err != nil {
			logger.WithError(err).Fatal("walking reserved namespace")
		}
	}
}

func buildDemo(bind binding.Binding, logger *logrus.Logger) (*h5typed.File, error) {
	f, err := h5typed.Create(bind, "demo.h5", h5typed.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := f.Int32s().WriteArray("/measurements/counts", []int32{3, 1, 4, 1, 5, 9, 2, 6},
		h5typed.WithChunks(4), h5typed.WithDeflate(6)); err != nil {
		return nil, err
	}
	if err := f.Float64s().WriteMatrix("/measurements/grid",
		[][]float64{{1.0, 2.0}, {3.0, 4.0}}); err != nil {
		return nil, err
	}
	if err := f.Strings().Write("/meta/instrument", "spectrometer-7"); err != nil {
		return nil, err
	}
	color, err := f.Enums().Type("Color", "RED", "GREEN", "BLUE")
	if err != nil {
		return nil, err
	}
	green, err := h5typed.NewEnumValue(color, "GREEN")
	if err != nil {
		return nil, err
	}
	if err := f.Enums().Write("/meta/color", green); err != nil {
		return nil, err
	}
	if err := f.Bools().WriteBitSet("/meta/flags", h5typed.NewBitSet(0, 5, 64)); err != nil {
		return nil, err
	}
	if err := f.Int32s().SetAttr("/measurements/counts", "version", 2); err != nil {
		return nil, err
	}
	return f, nil
}

func walk(f *h5typed.File, root string) error {
	return f.Walk(root, func(info h5typed.ObjectInfo) error {
		switch info.Type {
		case h5typed.TypeDataset:
			ds, err := f.Dataset(info.Path)
			if err != nil {
				return err
			}
			fmt.Printf("%-32s dataset %s %v elem=%dB layout=%s",
				info.Path, ds.TypeClass, ds.Dims, ds.ElemSize, ds.Layout)
			if len(ds.ChunkDims) > 0 {
				fmt.Printf(" chunks=%v", ds.ChunkDims)
			}
			if ds.Variant != h5typed.VariantNone {
				fmt.Printf(" variant=%s", ds.Variant)
			}
			fmt.Println()
			printAttrs(f, info.Path)
		case h5typed.TypeGroup:
			fmt.Printf("%-32s group\n", info.Path)
			printAttrs(f, info.Path)
		default:
			fmt.Printf("%-32s %s -> %s\n", info.Path, info.Type, info.LinkTarget)
		}
		return nil
	})
}

func printAttrs(f *h5typed.File, path string) {
	names, err := f.AttrNames(path)
	if err != nil {
		return
	}
	for _, name := range names {
		fmt.Printf("%-32s   @%s\n", "", name)
	}
}
