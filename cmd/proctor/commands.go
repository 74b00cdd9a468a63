package main

import (
	"encoding/json"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/loykin/proctor"
	"github.com/loykin/proctor/pkg/client"
)

type command struct {
	global *GlobalFlags
}

// registry opens the local registry. The root comes from --root, falling
// back to the config file when one is given.
func (c *command) registry() (*proctor.Registry, error) {
	root := c.global.Root
	var cfg *proctor.Config
	if c.global.ConfigPath != "" {
		loaded, err := proctor.LoadConfig(c.global.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		if root == "" {
			root = cfg.Root
		}
	}
	if root == "" {
		return nil, fmt.Errorf("registry root required: set --root or --config")
	}

	reg := proctor.New(root)
	if cfg != nil {
		reg.SetLocking(cfg.LockingEnabled())
	}
	return reg, nil
}

// apiClient connects to a remote daemon and verifies it is reachable
func (c *command) apiClient(apiURL string, timeout time.Duration) (*APIClient, error) {
	apiClient := NewAPIClient(apiURL, timeout)
	if !apiClient.IsReachable() {
		return nil, fmt.Errorf("daemon not reachable at %s - start it first with 'proctor serve'", apiURL)
	}
	return apiClient, nil
}

// List prints the names of all registered processes
func (c *command) List(f ListFlags) error {
	if f.APIUrl != "" {
		apiClient, err := c.apiClient(f.APIUrl, f.APITimeout)
		if err != nil {
			return err
		}
		names, err := apiClient.List()
		if err != nil {
			return err
		}
		printJSON(names)
		return nil
	}

	reg, err := c.registry()
	if err != nil {
		return err
	}
	names, err := reg.List()
	if err != nil {
		return err
	}
	printJSON(names)
	return nil
}

// Status prints process records, either all of them or one selected by name
func (c *command) Status(f StatusFlags) error {
	if f.APIUrl != "" {
		apiClient, err := c.apiClient(f.APIUrl, f.APITimeout)
		if err != nil {
			return err
		}
		if f.Name != "" {
			entry, err := apiClient.GetRecord(f.Name)
			if err != nil {
				return err
			}
			printJSON(entry)
			return nil
		}
		entries, err := apiClient.Records()
		if err != nil {
			return err
		}
		printJSON(entries)
		return nil
	}

	reg, err := c.registry()
	if err != nil {
		return err
	}
	if f.Name != "" {
		rec, err := reg.Get(f.Name)
		if err != nil {
			return err
		}
		printJSON(proctor.Entry{Name: f.Name, Record: rec})
		return nil
	}
	entries, err := reg.Entries()
	if err != nil {
		return err
	}
	printJSON(entries)
	return nil
}

// Stats prints resource usage samples for live processes
func (c *command) Stats(f StatsFlags) error {
	if f.APIUrl != "" {
		apiClient, err := c.apiClient(f.APIUrl, f.APITimeout)
		if err != nil {
			return err
		}
		stats, err := apiClient.Stats()
		if err != nil {
			return err
		}
		printJSON(stats)
		return nil
	}

	reg, err := c.registry()
	if err != nil {
		return err
	}
	stats, err := reg.Stats()
	if err != nil {
		return err
	}
	printJSON(stats)
	return nil
}

// buildSubmitCommand assembles the command to submit from flags or a
// request file. The returned name and task may be empty; the registry
// fills in defaults.
func buildSubmitCommand(f SubmitFlags) (proctor.Command, string, string, error) {
	if f.File != "" {
		if f.Cmd != "" || len(f.Argv) > 0 {
			return proctor.Command{}, "", "", fmt.Errorf("--file cannot be combined with --cmd or argv arguments")
		}
		data, err := os.ReadFile(f.File)
		if err != nil {
			return proctor.Command{}, "", "", fmt.Errorf("read submit file: %w", err)
		}
		var req struct {
			Command proctor.Command `json:"command"`
			Name    string          `json:"name"`
			Task    string          `json:"task"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return proctor.Command{}, "", "", fmt.Errorf("parse submit file %s: %w", f.File, err)
		}
		name := f.Name
		if name == "" {
			name = req.Name
		}
		taskName := f.Task
		if taskName == "" {
			taskName = req.Task
		}
		return req.Command, name, taskName, nil
	}

	if f.Cmd != "" && len(f.Argv) > 0 {
		return proctor.Command{}, "", "", fmt.Errorf("use either --cmd or argv arguments, not both")
	}
	if f.Cmd != "" {
		return proctor.Shell(f.Cmd), f.Name, f.Task, nil
	}
	if len(f.Argv) > 0 {
		return proctor.Argv(f.Argv...), f.Name, f.Task, nil
	}
	return proctor.Command{}, "", "", fmt.Errorf("command required: pass --cmd, argv arguments or --file")
}

// Submit builds a task signature for deferred execution and prints it
func (c *command) Submit(f SubmitFlags) error {
	cmd, name, taskName, err := buildSubmitCommand(f)
	if err != nil {
		return err
	}
	if cmd.IsZero() {
		return fmt.Errorf("command required: pass --cmd, argv arguments or --file")
	}

	if f.APIUrl != "" {
		apiClient, err := c.apiClient(f.APIUrl, f.APITimeout)
		if err != nil {
			return err
		}
		req := client.SubmitRequest{Name: name, Task: taskName}
		if cmd.IsShell() {
			req.Command = cmd.Argv()[0]
		} else {
			req.Command = cmd.Argv()
		}
		sig, err := apiClient.Submit(req)
		if err != nil {
			return err
		}
		printJSON(sig)
		return nil
	}

	reg, err := c.registry()
	if err != nil {
		return err
	}
	printJSON(reg.Submit(cmd, name, taskName))
	return nil
}

// Signal sends a numbered signal to a process
func (c *command) Signal(f SignalFlags) error {
	if f.APIUrl != "" {
		apiClient, err := c.apiClient(f.APIUrl, f.APITimeout)
		if err != nil {
			return err
		}
		if err := apiClient.SendSignal(f.Name, f.Signal); err != nil {
			return err
		}
		fmt.Printf("Sent signal %d to '%s'\n", f.Signal, f.Name)
		return nil
	}

	reg, err := c.registry()
	if err != nil {
		return err
	}
	if err := reg.SendSignal(f.Name, syscall.Signal(f.Signal)); err != nil {
		return err
	}
	fmt.Printf("Sent signal %d to '%s'\n", f.Signal, f.Name)
	return nil
}

// Terminate asks a process to shut down gracefully
func (c *command) Terminate(f SignalFlags) error {
	if f.APIUrl != "" {
		apiClient, err := c.apiClient(f.APIUrl, f.APITimeout)
		if err != nil {
			return err
		}
		if err := apiClient.Terminate(f.Name); err != nil {
			return err
		}
		fmt.Printf("Terminated '%s'\n", f.Name)
		return nil
	}

	reg, err := c.registry()
	if err != nil {
		return err
	}
	if err := reg.Terminate(f.Name); err != nil {
		return err
	}
	fmt.Printf("Terminated '%s'\n", f.Name)
	return nil
}

// Kill force-kills a process
func (c *command) Kill(f SignalFlags) error {
	if f.APIUrl != "" {
		apiClient, err := c.apiClient(f.APIUrl, f.APITimeout)
		if err != nil {
			return err
		}
		if err := apiClient.Kill(f.Name); err != nil {
			return err
		}
		fmt.Printf("Killed '%s'\n", f.Name)
		return nil
	}

	reg, err := c.registry()
	if err != nil {
		return err
	}
	if err := reg.Kill(f.Name); err != nil {
		return err
	}
	fmt.Printf("Killed '%s'\n", f.Name)
	return nil
}

// Remove deletes a process record, killing the process first when forced
func (c *command) Remove(f RemoveFlags) error {
	if f.APIUrl != "" {
		apiClient, err := c.apiClient(f.APIUrl, f.APITimeout)
		if err != nil {
			return err
		}
		if err := apiClient.Remove(f.Name, f.Force); err != nil {
			return err
		}
		fmt.Printf("Removed '%s'\n", f.Name)
		return nil
	}

	reg, err := c.registry()
	if err != nil {
		return err
	}
	if err := reg.Remove(f.Name, f.Force); err != nil {
		return err
	}
	fmt.Printf("Removed '%s'\n", f.Name)
	return nil
}

// Cleanup removes all terminated process records
func (c *command) Cleanup(f CleanupFlags) error {
	if f.APIUrl != "" {
		apiClient, err := c.apiClient(f.APIUrl, f.APITimeout)
		if err != nil {
			return err
		}
		if err := apiClient.Cleanup(f.Force); err != nil {
			return err
		}
		fmt.Println("Cleanup complete")
		return nil
	}

	reg, err := c.registry()
	if err != nil {
		return err
	}
	if err := reg.Cleanup(f.Force); err != nil {
		return err
	}
	fmt.Println("Cleanup complete")
	return nil
}
