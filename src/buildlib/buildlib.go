// Package buildlib triggers the vendor LuaJIT build when the static library
// is missing. Only the MSVC build on Windows is supported.
package buildlib

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
)

// LibName is the artifact produced by msvcbuild.bat.
const LibName = "lua51.lib"

var (
	// ErrUnsupportedPlatform is returned on anything but Windows.
	ErrUnsupportedPlatform = errors.New("not supported for non-windows platforms")
	// ErrBuildFailed is returned when the artifact is still missing after the build ran.
	ErrBuildFailed = errors.New("compile failed")
	// ErrMissingEnv is returned when the meson variables are not set.
	ErrMissingEnv = errors.New("MESON_SOURCE_ROOT and MESON_SUBDIR must be set")
)

// Runner runs the vendor build command in dir.
type Runner func(ctx context.Context, dir string) error

// Options describe one build.
type Options struct {
	SourceRoot string
	Subdir     string
	// GOOS defaults to runtime.GOOS.
	GOOS string
	// Run defaults to invoking msvcbuild.bat static through cmd.exe.
	Run Runner
}

// Result reports where the artifact lives and whether this call built it.
type Result struct {
	Path  string
	Built bool
}

// OptionsFromEnv reads MESON_SOURCE_ROOT and MESON_SUBDIR.
func OptionsFromEnv() (Options, error) {
	root := os.Getenv("MESON_SOURCE_ROOT")
	sub, ok := os.LookupEnv("MESON_SUBDIR")
	if root == "" || !ok {
		return Options{}, ErrMissingEnv
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Options{}, fmt.Errorf("resolve source root: %w", err)
	}
	return Options{SourceRoot: abs, Subdir: sub}, nil
}

// WorkDir is the LuaJIT src directory the build runs in.
func (o Options) WorkDir() string {
	return filepath.Join(o.SourceRoot, o.Subdir, "src")
}

// LibPath is the expected artifact location.
func (o Options) LibPath() string {
	return filepath.Join(o.WorkDir(), LibName)
}

// Build runs the vendor build unless the artifact already exists.
func Build(ctx context.Context, opts Options, logger zerolog.Logger) (Result, error) {
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos != "windows" {
		return Result{}, ErrUnsupportedPlatform
	}

	lib := opts.LibPath()
	if exists(lib) {
		logger.Info().Str("path", lib).Msg("target already exists")
		return Result{Path: lib}, nil
	}

	run := opts.Run
	if run == nil {
		run = msvcBuild
	}

	logger.Info().Str("dir", opts.WorkDir()).Msg("running msvcbuild")
	if err := run(ctx, opts.WorkDir()); err != nil {
		// The artifact check below decides success.
		logger.Warn().Err(err).Msg("build command returned an error")
	}

	if !exists(lib) {
		return Result{Path: lib}, ErrBuildFailed
	}
	logger.Info().Str("path", lib).Msg("build finished")
	return Result{Path: lib, Built: true}, nil
}

func msvcBuild(ctx context.Context, dir string) error {
	cmd := exec.CommandContext(ctx, "cmd", "/C", `.\msvcbuild.bat`, "static")
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
