/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"vecdraw/internal/config"
	"vecdraw/internal/crash"
	applog "vecdraw/internal/log"
	"vecdraw/internal/scene"
	"vecdraw/internal/scenepack"
	"vecdraw/internal/storage"
	"vecdraw/internal/telemetry"
	"vecdraw/internal/vector"
	"vecdraw/internal/version"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "vecdraw - vector drawing to PNG, SVG and PDF")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  vecdraw version|-v|--version             Show version")
	fmt.Fprintln(w, "  vecdraw smile <dir>                       Render the smiley to <dir>/smiley.{png,svg,pdf}")
	fmt.Fprintln(w, "  vecdraw render <scene> <out>              Render a YAML/JSON scene; format follows <out>'s extension")
	fmt.Fprintln(w, "  vecdraw store put <scene> [name]          Store a scene in the library")
	fmt.Fprintln(w, "  vecdraw store get <name> [out]            Print or write a stored scene as YAML")
	fmt.Fprintln(w, "  vecdraw store list                        List stored scenes")
	fmt.Fprintln(w, "  vecdraw store rm <name>                   Delete a stored scene")
	fmt.Fprintln(w, "  vecdraw store render <name> <out>         Render a stored scene and log the render")
	fmt.Fprintln(w, "  vecdraw store log <name>                  Show the render log of a stored scene")
	fmt.Fprintln(w, "  vecdraw store export <zip>                Write every stored scene to a scene pack")
	fmt.Fprintln(w, "  vecdraw store import <zip>                Install a scene pack, skipping existing names")
	fmt.Fprintln(w, "  vecdraw config show [file]                Print the effective config, marking env overrides")
	fmt.Fprintln(w, "  vecdraw config init                       Write the defaults to the user config file")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code:
// 0 on success, 1 when the command failed, 2 on usage errors.
func run(args []string, stdout, stderr io.Writer) int {
	defer crash.Recover("")
	l := applog.WithComponent("cli")
	l.Debug("start", slog.Int("args", len(args)))

	if len(args) == 0 {
		usage(stdout)
		return 0
	}
	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintln(stdout, version.String())
		return 0
	case "help", "--help", "-h":
		usage(stdout)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Console:   stderr,
	})
	defer func() { _ = applog.Close() }()
	l = applog.WithComponent("cli")
	ctx := applog.ContextWithOperation(context.Background(), args[0])
	defer func() {
		fctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		telemetry.Default().Flush(fctx)
	}()

	var cmdErr error
	switch args[0] {
	case "smile":
		if len(args) < 2 {
			fmt.Fprintln(stderr, "smile requires <dir>")
			usage(stderr)
			return 2
		}
		cmdErr = cmdSmile(ctx, cfg, args[1], stdout)
	case "render":
		if len(args) < 3 {
			fmt.Fprintln(stderr, "render requires <scene> and <out>")
			usage(stderr)
			return 2
		}
		cmdErr = cmdRender(ctx, cfg, args[1], args[2], stdout)
	case "store":
		if len(args) < 2 {
			fmt.Fprintln(stderr, "store requires a subcommand")
			usage(stderr)
			return 2
		}
		var code int
		code, cmdErr = cmdStore(ctx, cfg, args[1:], stdout, stderr)
		if code != 0 {
			return code
		}
	case "config":
		cmdErr = cmdConfig(cfg, args[1:], stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}
	if cmdErr != nil {
		l.ErrorContext(ctx, "command failed", slog.Any("err", cmdErr))
		fmt.Fprintln(stderr, "Error:", cmdErr)
		return 1
	}
	return 0
}

// background picks the scene's background and falls back to the configured one.
func background(doc scene.Document, cfg config.AppConfig) (*vector.Color, error) {
	bg, err := doc.BackgroundColor()
	if err != nil || bg != nil {
		return bg, err
	}
	return cfg.Render.BackgroundColor()
}

func renderDoc(ctx context.Context, cfg config.AppConfig, doc scene.Document, out string) (string, int64, error) {
	c, err := doc.Canvas()
	if err != nil {
		return "", 0, err
	}
	bg, err := background(doc, cfg)
	if err != nil {
		return "", 0, err
	}
	start := time.Now()
	format, n, err := renderFile(c, doc.Name, bg, cfg.Render, out)
	if err != nil {
		return "", 0, err
	}
	took := time.Since(start)
	applog.WithComponent("cli").InfoContext(ctx, "rendered",
		slog.String("out", out), slog.String("format", format),
		slog.Int("shapes", c.Len()), slog.Int64("bytes", n), slog.Duration("took", took))
	telemetry.Default().Render(telemetry.RenderEvent{Format: format, Shapes: c.Len(), Bytes: n, Took: took})
	return format, n, nil
}

func cmdSmile(ctx context.Context, cfg config.AppConfig, dir string, stdout io.Writer) error {
	abs, _ := filepath.Abs(dir)
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	doc := scene.Smiley()
	for _, ext := range []string{".png", ".svg", ".pdf"} {
		out := filepath.Join(abs, "smiley"+ext)
		if _, _, err := renderDoc(ctx, cfg, doc, out); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Wrote", out)
	}
	return nil
}

func readScene(path string) (scene.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scene.Document{}, err
	}
	doc, err := scene.Parse(data)
	if err != nil {
		return scene.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func cmdRender(ctx context.Context, cfg config.AppConfig, in, out string, stdout io.Writer) error {
	doc, err := readScene(in)
	if err != nil {
		return err
	}
	if _, _, err := renderDoc(ctx, cfg, doc, out); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Wrote", out)
	return nil
}

func cmdStore(ctx context.Context, cfg config.AppConfig, args []string, stdout, stderr io.Writer) (int, error) {
	need := map[string]int{"put": 1, "get": 1, "list": 0, "rm": 1, "render": 2, "log": 1, "export": 1, "import": 1}
	n, ok := need[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown store subcommand %q\n", args[0])
		usage(stderr)
		return 2, nil
	}
	if len(args)-1 < n {
		fmt.Fprintf(stderr, "store %s requires %d argument(s)\n", args[0], n)
		usage(stderr)
		return 2, nil
	}

	st, err := storage.Open(ctx, cfg.Store.Path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := st.Close(); err != nil {
			applog.WithComponent("cli").Warn("close store failed", slog.Any("err", err))
		}
	}()

	switch args[0] {
	case "put":
		doc, err := readScene(args[1])
		if err != nil {
			return 0, err
		}
		if len(args) > 2 {
			doc.Name = args[2]
		}
		if strings.TrimSpace(doc.Name) == "" {
			doc.Name = strings.TrimSuffix(filepath.Base(args[1]), filepath.Ext(args[1]))
		}
		if err := st.PutScene(ctx, doc); err != nil {
			return 0, err
		}
		fmt.Fprintln(stdout, "Stored", doc.Name)
	case "get":
		doc, err := st.GetScene(ctx, args[1])
		if err != nil {
			return 0, err
		}
		data, err := scene.Marshal(doc)
		if err != nil {
			return 0, err
		}
		if len(args) > 2 {
			return 0, os.WriteFile(args[2], data, 0o644)
		}
		_, err = stdout.Write(data)
		return 0, err
	case "list":
		list, err := st.ListScenes(ctx)
		if err != nil {
			return 0, err
		}
		for _, si := range list {
			fmt.Fprintf(stdout, "%s\t%d shapes\t%s\n", si.Name, si.Shapes, si.UpdatedAt.Local().Format(time.DateTime))
		}
	case "rm":
		if err := st.DeleteScene(ctx, args[1]); err != nil {
			return 0, err
		}
		fmt.Fprintln(stdout, "Deleted", args[1])
	case "render":
		doc, err := st.GetScene(ctx, args[1])
		if err != nil {
			return 0, err
		}
		out := args[2]
		format, size, err := renderDoc(ctx, cfg, doc, out)
		if err != nil {
			return 0, err
		}
		abs, _ := filepath.Abs(out)
		if _, err := st.RecordRender(ctx, storage.Render{
			Scene: doc.Name, Format: format, Output: abs,
			Width: cfg.Render.Width, Height: cfg.Render.Height, Bytes: size,
		}); err != nil {
			return 0, err
		}
		fmt.Fprintln(stdout, "Wrote", out)
	case "log":
		rs, err := st.Renders(ctx, args[1])
		if err != nil {
			return 0, err
		}
		for _, r := range rs {
			fmt.Fprintf(stdout, "%d\t%s\t%s\t%dx%d\t%d bytes\t%s\n", r.ID, r.RenderedAt.Local().Format(time.DateTime), r.Format, r.Width, r.Height, r.Bytes, r.Output)
		}
	case "export":
		n, err := scenepack.Export(ctx, st, args[1])
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(stdout, "Exported %d scene(s) to %s\n", n, args[1])
	case "import":
		n, err := scenepack.Install(ctx, st, args[1])
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(stdout, "Installed %d scene(s)\n", n)
	}
	return 0, nil
}

func cmdConfig(cfg config.AppConfig, args []string, stdout io.Writer) error {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "show":
		if len(args) > 1 {
			fileCfg, err := config.LoadFile(args[1])
			if err != nil {
				return err
			}
			cfg = fileCfg
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		if _, err := stdout.Write(data); err != nil {
			return err
		}
		for _, key := range config.OverrideKeys() {
			if env, ok := config.EnvOverrideFor(key); ok {
				fmt.Fprintf(stdout, "# %s overridden by %s\n", key, env)
			}
		}
		return nil
	case "init":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}
		if err := config.Save(config.Defaults()); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Wrote", path)
		return nil
	default:
		return errors.New("config wants show or init")
	}
}
