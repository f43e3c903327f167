// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package profiler periodically captures cpu, memory and lock profiles of the
// daemon.
package profiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	cpuProfileFile  = "cpu.profile"
	memProfileFile  = "mem.profile"
	lockProfileFile = "lock.profile"

	dirPerms  = 0o750
	filePerms = 0o600
)

var (
	errCPUProfilerRunning    = errors.New("cpu profiler already running")
	errCPUProfilerNotRunning = errors.New("cpu profiler doesn't exist")
	errNoMutexProfile        = errors.New("mutex profile not found")
	errInvalidFrequency      = errors.New("profile frequency must be positive")
)

// Continuous writes a new set of profiles into Dir every Freq, keeping the
// MaxNumFiles most recent sets.
type Continuous struct {
	dir         string
	freq        time.Duration
	maxNumFiles int

	cpuProfileName  string
	memProfileName  string
	lockProfileName string
	cpuProfile      *os.File
}

func NewContinuous(dir string, freq time.Duration, maxNumFiles int) (*Continuous, error) {
	if freq <= 0 {
		return nil, errInvalidFrequency
	}
	return &Continuous{
		dir:             dir,
		freq:            freq,
		maxNumFiles:     maxNumFiles,
		cpuProfileName:  filepath.Join(dir, cpuProfileFile),
		memProfileName:  filepath.Join(dir, memProfileFile),
		lockProfileName: filepath.Join(dir, lockProfileFile),
	}, nil
}

// Dispatch profiles until ctx is done. The last set of profiles is written
// before it returns.
func (p *Continuous) Dispatch(ctx context.Context) error {
	if err := os.MkdirAll(p.dir, dirPerms); err != nil {
		return err
	}

	t := time.NewTicker(p.freq)
	defer t.Stop()

	for {
		if err := p.startCPUProfiler(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return p.stop()
		case <-t.C:
			if err := p.stop(); err != nil {
				return err
			}
		}

		if err := p.rotate(); err != nil {
			return err
		}
	}
}

func (p *Continuous) startCPUProfiler() error {
	if p.cpuProfile != nil {
		return errCPUProfilerRunning
	}

	file, err := os.OpenFile(p.cpuProfileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, filePerms)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(file); err != nil {
		_ = file.Close()
		return err
	}
	p.cpuProfile = file
	return nil
}

func (p *Continuous) stopCPUProfiler() error {
	if p.cpuProfile == nil {
		return errCPUProfilerNotRunning
	}

	pprof.StopCPUProfile()
	err := p.cpuProfile.Close()
	p.cpuProfile = nil
	return err
}

func (p *Continuous) memoryProfile() error {
	file, err := os.OpenFile(p.memProfileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, filePerms)
	if err != nil {
		return err
	}
	defer file.Close()

	runtime.GC()
	return pprof.WriteHeapProfile(file)
}

func (p *Continuous) lockProfile() error {
	file, err := os.OpenFile(p.lockProfileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, filePerms)
	if err != nil {
		return err
	}
	defer file.Close()

	profile := pprof.Lookup("mutex")
	if profile == nil {
		return errNoMutexProfile
	}
	return profile.WriteTo(file, 0)
}

func (p *Continuous) stop() error {
	g := errgroup.Group{}
	g.Go(p.stopCPUProfiler)
	g.Go(p.memoryProfile)
	g.Go(p.lockProfile)
	return g.Wait()
}

func (p *Continuous) rotate() error {
	g := errgroup.Group{}
	g.Go(func() error { return rotate(p.cpuProfileName, p.maxNumFiles) })
	g.Go(func() error { return rotate(p.memProfileName, p.maxNumFiles) })
	g.Go(func() error { return rotate(p.lockProfileName, p.maxNumFiles) })
	return g.Wait()
}

func rotate(name string, maxNumFiles int) error {
	for i := maxNumFiles - 1; i > 0; i-- {
		src := fmt.Sprintf("%s.%d", name, i)
		dst := fmt.Sprintf("%s.%d", name, i+1)
		if err := renameIfExists(src, dst); err != nil {
			return err
		}
	}
	return renameIfExists(name, name+".1")
}

func renameIfExists(src, dst string) error {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}
	return os.Rename(src, dst)
}
