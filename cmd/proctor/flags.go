package main

import "time"

// GlobalFlags Flag structs to decouple cobra from logic for testing.
type GlobalFlags struct {
	ConfigPath string // path to TOML config file
	Root       string // registry root directory
}

// ListFlags holds flags for the list command
type ListFlags struct {
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

// StatusFlags holds flags for the status command
type StatusFlags struct {
	Name string
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

// StatsFlags holds flags for the stats command
type StatsFlags struct {
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

// SubmitFlags holds flags for the submit command
type SubmitFlags struct {
	Name string
	Cmd  string   // shell command string
	Argv []string // positional argv form
	Task string
	File string // JSON submit request file
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

// SignalFlags holds flags for signal delivery commands
type SignalFlags struct {
	Name   string
	Signal int // numeric signal for the signal command
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

// RemoveFlags holds flags for the remove command
type RemoveFlags struct {
	Name  string
	Force bool
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

// CleanupFlags holds flags for the cleanup command
type CleanupFlags struct {
	Force bool
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

// ServeFlags holds flags for the serve command
type ServeFlags struct {
	ConfigPath string
	Daemonize  bool
	LogFile    string
}

// TemplateCreateFlags holds flags for the template command
type TemplateCreateFlags struct {
	Type   string
	Name   string
	Output string
	Force  bool
}
