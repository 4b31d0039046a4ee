package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-heatgrid/internal/cli"
)

type recordingShow struct {
	titles []string
	images []image.Image
}

func (s *recordingShow) show(ctx context.Context, title string, img image.Image) error {
	s.titles = append(s.titles, title)
	s.images = append(s.images, img)
	return nil
}

func writeTestGrid(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Voronoi.csv")
	assert.NoError(t, os.WriteFile(path, []byte(data), 0o666))
	return path
}

func TestRunShow(t *testing.T) {
	path := writeTestGrid(t, "0,2\n4,8\n")
	var stdout, stderr bytes.Buffer
	s := &recordingShow{}
	assert.NoError(t, run(t.Context(), []string{"-width", "4", "-height", "3", path}, &stdout, &stderr, s.show))
	assert.Equal(t, []string{path}, s.titles)
	assert.Equal(t, image.Rect(0, 0, 384, 288), s.images[0].Bounds())
}

func TestRunShowRaw(t *testing.T) {
	path := writeTestGrid(t, "0,2\n4,8\n")
	var stdout, stderr bytes.Buffer
	s := &recordingShow{}
	assert.NoError(t, run(t.Context(), []string{"-raw", "-scale", "3", path}, &stdout, &stderr, s.show))
	assert.Equal(t, image.Rect(0, 0, 6, 6), s.images[0].Bounds())
}

func TestRunOutput(t *testing.T) {
	path := writeTestGrid(t, "0,2\n4,8\n")
	dir := t.TempDir()

	raw := filepath.Join(dir, "raw.png")
	var stdout, stderr bytes.Buffer
	s := &recordingShow{}
	assert.NoError(t, run(t.Context(), []string{"-raw", "-output", raw, path}, &stdout, &stderr, s.show))
	assert.Zero(t, s.titles)
	file, err := os.Open(raw)
	assert.NoError(t, err)
	defer file.Close()
	img, err := png.Decode(file)
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	assert.Contains(t, stderr.String(), "wrote image")

	for _, filename := range []string{"figure.png", "figure.svg"} {
		output := filepath.Join(dir, filename)
		assert.NoError(t, run(t.Context(), []string{"-output", output, path}, &stdout, &stderr, s.show))
		fileInfo, err := os.Stat(output)
		assert.NoError(t, err)
		assert.True(t, fileInfo.Size() > 0)
	}
}

func TestRunAllZero(t *testing.T) {
	path := writeTestGrid(t, "0,0\n0,0\n")
	var stdout, stderr bytes.Buffer
	s := &recordingShow{}
	assert.NoError(t, run(t.Context(), []string{"-raw", path}, &stdout, &stderr, s.show))
	assert.Contains(t, stderr.String(), "grid maximum is not positive")
	assert.Equal(t, 1, len(s.images))
}

func TestRunComma(t *testing.T) {
	path := writeTestGrid(t, "0;2\n4;8\n")
	var stdout, stderr bytes.Buffer
	s := &recordingShow{}
	assert.NoError(t, run(t.Context(), []string{"-raw", "-comma", ";", "-log-level", "debug", path}, &stdout, &stderr, s.show))
	assert.Equal(t, image.Rect(0, 0, 2, 2), s.images[0].Bounds())
	assert.Contains(t, stderr.String(), "parsed config")
}

func TestRunInfiniteRange(t *testing.T) {
	path := writeTestGrid(t, "0,0.5,1\n")
	for _, args := range [][]string{
		{"-raw", "-vmin", "-inf", path},
		{"-raw", "-vmin", "inf", "-vmax", "inf", path},
		{"-raw", "-vmax", "nan", path},
	} {
		var stdout, stderr bytes.Buffer
		s := &recordingShow{}
		err := run(t.Context(), args, &stdout, &stderr, s.show)
		var exitError *cli.ExitError
		assert.True(t, errors.As(err, &exitError))
		assert.Equal(t, 2, exitError.Code)
		assert.Zero(t, s.titles)
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	s := &recordingShow{}

	err := run(t.Context(), []string{filepath.Join(dir, "Voronoi.csv")}, &stdout, &stderr, s.show)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	err = run(t.Context(), []string{writeTestGrid(t, "1,2,abc\n")}, &stdout, &stderr, s.show)
	assert.True(t, errors.Is(err, strconv.ErrSyntax))

	err = run(t.Context(), []string{"-colormap", "jet"}, &stdout, &stderr, s.show)
	var exitError *cli.ExitError
	assert.True(t, errors.As(err, &exitError))

	assert.Zero(t, s.titles)
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	s := &recordingShow{}
	assert.NoError(t, run(t.Context(), []string{"-h"}, &stdout, &stderr, s.show))
	assert.Contains(t, stdout.String(), "Usage:")
	assert.Zero(t, s.titles)
}
