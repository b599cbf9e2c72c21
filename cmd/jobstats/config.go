package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/clemsonciti/jobstats"
	"gopkg.in/yaml.v3"
)

var (
	// Default configuration values. These can be overridden with -ldflags.

	defaultFields         = "Jobid,Partition,AllocCPUS,TotalCPU,ReqMem,MaxRSS,Start,End,Elapsed,State,Jobname"
	defaultCompletedState = "COMPLETED"
	defaultStepSeparator  = "."
	defaultTimezone       = "Local"
	defaultSacctPath      = "sacct"
	defaultSampleSize     = "10"
	defaultOnParseError   = "skip"
)

type config struct {
	Fields         []string `yaml:"fields"`
	CompletedState string   `yaml:"completed_state"`
	StepSeparator  string   `yaml:"step_separator"`
	Timezone       string   `yaml:"timezone"`
	SacctPath      string   `yaml:"sacct_path"`
	SampleSize     int      `yaml:"sample_size"`
	OnParseError   string   `yaml:"on_parse_error"`
}

// defaultConfigFile is read when no -config is given, if it exists.
func defaultConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "jobstats.yaml")
}

func loadConfig(filename string, required bool) (*config, error) {
	parsedDefaultSampleSize, err := strconv.Atoi(defaultSampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to parse defaultSampleSize: %w", err)
	}
	cfg := &config{
		Fields:         strings.Split(defaultFields, ","),
		CompletedState: defaultCompletedState,
		StepSeparator:  defaultStepSeparator,
		Timezone:       defaultTimezone,
		SacctPath:      defaultSacctPath,
		SampleSize:     parsedDefaultSampleSize,
		OnParseError:   defaultOnParseError,
	}
	if filename == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(filename)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %v: %w", filename, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %v: %w", filename, err)
	}
	return cfg, nil
}

func (c *config) schema() (jobstats.Schema, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return jobstats.Schema{}, fmt.Errorf("failed to load timezone %v: %w", c.Timezone, err)
	}
	s := jobstats.Schema{
		Fields:         c.Fields,
		CompletedState: c.CompletedState,
		StepSeparator:  c.StepSeparator,
		Location:       loc,
	}
	if err := s.Validate(); err != nil {
		return jobstats.Schema{}, err
	}
	return s, nil
}
