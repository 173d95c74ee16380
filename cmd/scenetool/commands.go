package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Faultbox/crystalview/internal/component"
	"github.com/Faultbox/crystalview/internal/engine/export"
	"github.com/Faultbox/crystalview/internal/engine/lighting"
	"github.com/Faultbox/crystalview/internal/engine/material"
	"github.com/Faultbox/crystalview/internal/engine/viewport"
	"github.com/Faultbox/crystalview/internal/logger"
	"github.com/Faultbox/crystalview/pkg/formats"
)

// errInvalid marks a scene that failed validation.
var errInvalid = errors.New("scene has problems")

func loadSettings(path string) (formats.Settings, error) {
	if path == "" {
		return formats.DefaultSettings(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return formats.Settings{}, err
	}
	return formats.ParseSettings(data)
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <scene.json>",
		Short: "Show scene information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, problems, err := formats.ParseSceneFile(args[0])
			if err != nil {
				return err
			}
			return printInfo(cmd.OutOrStdout(), args[0], node, problems)
		},
	}
}

func printInfo(w io.Writer, path string, node *formats.SceneNode, problems []error) error {
	box := node.BoundingBox()
	fmt.Fprintf(w, "File:       %s\n", path)
	fmt.Fprintf(w, "Name:       %s\n", node.Name)
	fmt.Fprintf(w, "Primitives: %d\n", node.CountPrimitives())
	fmt.Fprintf(w, "Summary:    %s\n", node.Summary())
	fmt.Fprintf(w, "Bounds:     [%g %g %g] .. [%g %g %g]\n",
		box[0][0], box[0][1], box[0][2], box[1][0], box[1][1], box[1][2])
	if len(node.Lattice) == 3 {
		fmt.Fprintf(w, "Lattice:    a=%v b=%v c=%v\n", node.Lattice[0], node.Lattice[1], node.Lattice[2])
	}
	fmt.Fprintln(w, "Tree:")
	node.Walk(func(n *formats.SceneNode, depth int) bool {
		indent := strings.Repeat("  ", depth+1)
		switch {
		case n.Primitive != nil:
			count := len(n.Primitive.Positions) + len(n.Primitive.PositionPairs) + len(n.Primitive.ControlPoints)
			fmt.Fprintf(w, "%s%s (%s, %d)%s\n", indent, n.Name, n.Primitive.Kind, count, hiddenMark(n))
		default:
			fmt.Fprintf(w, "%s%s/%s\n", indent, n.Name, hiddenMark(n))
		}
		return true
	})
	if len(problems) > 0 {
		fmt.Fprintf(w, "Problems:   %d\n", len(problems))
		for _, p := range problems {
			fmt.Fprintf(w, "  - %v\n", p)
		}
	}
	return nil
}

func hiddenMark(n *formats.SceneNode) string {
	if n.IsVisible() {
		return ""
	}
	return " [hidden]"
}

func validateCmd() *cobra.Command {
	var settingsPath string
	cmd := &cobra.Command{
		Use:   "validate <scene.json>",
		Short: "Check a scene and settings for problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(settingsPath)
			if err != nil {
				return err
			}
			_, problems, err := formats.ParseSceneFile(args[0])
			if err != nil {
				return err
			}
			if _, err := material.NewFactory(settings.Material); err != nil {
				problems = append(problems, err)
			}
			if _, err := lighting.Rig(settings.Lights); err != nil {
				problems = append(problems, err)
			}

			out := cmd.OutOrStdout()
			if len(problems) == 0 {
				fmt.Fprintf(out, "%s: ok\n", args[0])
				return nil
			}
			for _, p := range problems {
				fmt.Fprintf(out, "%s: %v\n", args[0], p)
			}
			return fmt.Errorf("%w: %d", errInvalid, len(problems))
		},
	}
	cmd.Flags().StringVar(&settingsPath, "settings", "", "Settings JSON file")
	return cmd
}

type outputOptions struct {
	settingsPath string
	output       string
	format       string
	width        int
	height       int
	hide         []string
}

func (o *outputOptions) register(cmd *cobra.Command, defaultFormat string) {
	cmd.Flags().StringVar(&o.settingsPath, "settings", "", "Settings JSON file")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Output file (default: scene name)")
	cmd.Flags().StringVarP(&o.format, "format", "f", defaultFormat, "Output format when the output has no known extension")
	cmd.Flags().IntVar(&o.width, "width", 800, "Image width")
	cmd.Flags().IntVar(&o.height, "height", 600, "Image height")
	cmd.Flags().StringSliceVar(&o.hide, "hide", nil, "Node names to hide")
}

func renderCmd() *cobra.Command {
	opts := &outputOptions{}
	cmd := &cobra.Command{
		Use:   "render <scene.json>",
		Short: "Render a scene to an image with the software rasterizer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return produce(cmd, args[0], opts, true)
		},
	}
	opts.register(cmd, string(export.PNG))
	return cmd
}

func exportCmd() *cobra.Command {
	opts := &outputOptions{}
	cmd := &cobra.Command{
		Use:   "export <scene.json>",
		Short: "Export scene geometry (glb, gltf, stl, dae)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return produce(cmd, args[0], opts, false)
		},
	}
	opts.register(cmd, string(export.GLB))
	return cmd
}

// produce mounts a headless component and downloads from it.
func produce(cmd *cobra.Command, path string, opts *outputOptions, raster bool) error {
	settings, err := loadSettings(opts.settingsPath)
	if err != nil {
		return err
	}
	settings.Renderer = formats.RendererSVG

	f, err := outputFormat(opts)
	if err != nil {
		return err
	}
	if f.Raster() != raster {
		return fmt.Errorf("%w: %s is not valid for %s", export.ErrUnknownFormat, f, cmd.Name())
	}

	node, problems, err := formats.ParseSceneFile(path)
	if err != nil {
		return err
	}
	for _, p := range problems {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", p)
	}

	comp, err := component.Mount(viewport.Size{Width: opts.width, Height: opts.height}, nil, node, settings,
		component.WithLogger(logger.Named("scenetool")))
	if err != nil {
		return err
	}
	defer comp.Unmount()

	if len(opts.hide) > 0 {
		hidden := make(map[string]int, len(opts.hide))
		for _, name := range opts.hide {
			hidden[name] = 0
		}
		comp.SetVisibility(hidden)
	}

	output := opts.output
	if output == "" {
		output = export.Filename(node.Name, f)
	}
	var written string
	comp.SetDownloadHandler(func(filename string, data []byte) error {
		if dir := filepath.Dir(output); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
		written = output
		return os.WriteFile(output, data, 0644)
	})

	done, _ := comp.RequestDownload(context.Background(), component.DownloadRequest{
		RequestCount: 1,
		Filename:     filepath.Base(output),
		Filetype:     string(f),
	})
	if err := <-done; err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", written)
	return nil
}

// outputFormat takes the format from the output extension when it names
// one, from --format otherwise.
func outputFormat(opts *outputOptions) (export.Format, error) {
	if ext := filepath.Ext(opts.output); ext != "" {
		if f, err := export.ParseFormat(ext); err == nil {
			return f, nil
		}
		if strings.EqualFold(ext, ".zip") {
			return export.DAE, nil
		}
	}
	return export.ParseFormat(opts.format)
}
