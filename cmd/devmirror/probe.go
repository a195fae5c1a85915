// Package main is the devmirror command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/frudas24/devmirror/internal/adb"
	"github.com/frudas24/devmirror/internal/config"
	"github.com/frudas24/devmirror/internal/frame"
	"github.com/frudas24/devmirror/internal/pixel"
)

// newProbeCommand pulls one framebuffer and reports how each pixel layout decodes it.
func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Pull one framebuffer and compare pixel layouts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := ctx.ensure()
			if err != nil {
				return err
			}
			client := adb.NewClient(adb.Options{
				Path:           cfg.ADBPath,
				Serial:         cfg.ADBSerial,
				CommandTimeout: cfg.ProbeTimeout(),
				PullTimeout:    cfg.PullTimeout(),
				PullMode:       cfg.PullMode,
				Compression:    cfg.PullCompression,
			}, logger)

			data, err := probeFramebuffer(cmd.Context(), client, cfg.FramebufferPath)
			if err != nil {
				return err
			}
			rows := probeRows(data, cfg)
			fmt.Fprintf(cmd.OutOrStdout(), "pulled %d bytes from %s (%dx%d)\n", len(data), cfg.FramebufferPath, cfg.DeviceWidth, cfg.DeviceHeight)
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Profile", "Expected", "Result", "Crop top"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight},
				stdoutIsTerminal(),
			))
			return nil
		},
	}
}

// probeFramebuffer checks the connection and pulls one raw frame.
func probeFramebuffer(ctx context.Context, t adb.Transport, path string) ([]byte, error) {
	ok, err := t.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, adb.ErrNoDevice
	}
	data, err := t.Pull(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty framebuffer")
	}
	return data, nil
}

// probeRows decodes data with Auto and every concrete profile.
func probeRows(data []byte, cfg config.Config) [][]string {
	proc := frame.NewProcessor(frame.Layout{
		DeviceWidth:        cfg.DeviceWidth,
		DeviceHeight:       cfg.DeviceHeight,
		Scale:              cfg.DisplayScale,
		NavBarHeight:       cfg.NavBarHeight,
		LuminanceThreshold: float64(cfg.LuminanceThreshold),
		CropRows:           cfg.StatusBarCropRows,
	})
	profiles := append([]pixel.Profile{pixel.Auto}, pixel.Profiles...)
	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		expected := "-"
		if p != pixel.Auto {
			expected = strconv.Itoa(p.ExpectedSize(cfg.DeviceWidth, cfg.DeviceHeight))
		}
		res := pixel.Decode(data, p, cfg.DeviceWidth, cfg.DeviceHeight)
		if !res.OK() {
			rows = append(rows, []string{p.String(), expected, res.Err.Error(), "-"})
			continue
		}
		result := "ok"
		if p == pixel.Auto {
			result = "ok (" + res.Profile.String() + ")"
		}
		crop := proc.Process(res.Image).Geometry.CropTop
		rows = append(rows, []string{p.String(), expected, result, strconv.Itoa(crop)})
	}
	return rows
}
