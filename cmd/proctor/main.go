package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command and wires all subcommands
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	listFlags := &ListFlags{}
	statusFlags := &StatusFlags{}
	statsFlags := &StatsFlags{}
	submitFlags := &SubmitFlags{}
	signalFlags := &SignalFlags{}
	removeFlags := &RemoveFlags{}
	cleanupFlags := &CleanupFlags{}
	templateFlags := &TemplateCreateFlags{}

	proctorCommand := command{global: globalFlags}

	root := createRootCommand(globalFlags)

	// Add subcommands
	root.AddCommand(
		createListCommand(proctorCommand, listFlags),
		createStatusCommand(proctorCommand, statusFlags),
		createStatsCommand(proctorCommand, statsFlags),
		createSubmitCommand(proctorCommand, submitFlags),
		createSignalCommand(proctorCommand, signalFlags),
		createTerminateCommand(proctorCommand, signalFlags),
		createKillCommand(proctorCommand, signalFlags),
		createRemoveCommand(proctorCommand, removeFlags),
		createCleanupCommand(proctorCommand, cleanupFlags),
		createServeCommand(globalFlags),
		createTemplateCommand(proctorCommand, templateFlags),
	)

	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "proctor",
		Short: "Managed process registry tool",
		Long: `Proctor keeps a disk-backed registry of managed processes and lets you
inspect, signal and clean them up, locally or via remote daemon connection.

Examples:
  proctor list --root=/var/run/proctor
  proctor status --name=myjob --root=/var/run/proctor
  proctor serve --config=config.toml                  # Start daemon
  proctor list --api-url=http://remote:8080/api       # Remote listing`,
	}

	// Only essential flags for CLI commands
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().StringVar(&flags.Root, "root", "", "registry root directory (overrides config)")

	return root
}

// createListCommand creates the list subcommand
func createListCommand(proctorCommand command, listFlags *ListFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered process names",
		Long: `List the names of all processes known to the registry.

Examples:
  proctor list --root=/var/run/proctor
  proctor list --api-url=http://remote:8080/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return proctorCommand.List(ListFlags{
				APIUrl:     listFlags.APIUrl,
				APITimeout: listFlags.APITimeout,
			})
		},
	}

	// Remote daemon connection
	cmd.Flags().StringVar(&listFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&listFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	return cmd
}

// createStatusCommand creates the status subcommand
func createStatusCommand(proctorCommand command, statusFlags *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show process records",
		Long: `Show the stored records of managed processes.

Examples:
  proctor status --root=/var/run/proctor              # Show all records
  proctor status --name=myjob --root=/var/run/proctor # Show one record
  proctor status --api-url=http://remote:8080/api     # Remote records`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return proctorCommand.Status(StatusFlags{
				Name:       statusFlags.Name,
				APIUrl:     statusFlags.APIUrl,
				APITimeout: statusFlags.APITimeout,
			})
		},
	}
	cmd.Flags().StringVar(&statusFlags.Name, "name", "", "process name (optional)")
	cmd.Flags().StringVar(&statusFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&statusFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")
	return cmd
}

// createStatsCommand creates the stats subcommand
func createStatsCommand(proctorCommand command, statsFlags *StatsFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show resource usage of live processes",
		Long: `Sample CPU, memory and thread usage for every live managed process.
Terminated processes are skipped.

Examples:
  proctor stats --root=/var/run/proctor
  proctor stats --api-url=http://remote:8080/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return proctorCommand.Stats(StatsFlags{
				APIUrl:     statsFlags.APIUrl,
				APITimeout: statsFlags.APITimeout,
			})
		},
	}
	cmd.Flags().StringVar(&statsFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&statsFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")
	return cmd
}

// createSubmitCommand creates the submit subcommand
func createSubmitCommand(proctorCommand command, submitFlags *SubmitFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit [-- command args...]",
		Short: "Build a task signature for deferred execution",
		Long: `Build a task signature describing how a queue worker should spawn a
process under registry management. The signature is printed as JSON and is
not executed locally.

Examples:
  proctor submit --cmd="python app.py" --root=/var/run/proctor
  proctor submit --name=myjob --root=/var/run/proctor -- python app.py --port 8000
  proctor submit --file=templates/worker.json --root=/var/run/proctor
  proctor submit --cmd="sleep 60" --api-url=http://remote:8080/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return proctorCommand.Submit(SubmitFlags{
				Name:       submitFlags.Name,
				Cmd:        submitFlags.Cmd,
				Argv:       args,
				Task:       submitFlags.Task,
				File:       submitFlags.File,
				APIUrl:     submitFlags.APIUrl,
				APITimeout: submitFlags.APITimeout,
			})
		},
	}

	cmd.Flags().StringVar(&submitFlags.Name, "name", "", "process name (defaults to a generated UUID)")
	cmd.Flags().StringVar(&submitFlags.Cmd, "cmd", "", "shell command string")
	cmd.Flags().StringVar(&submitFlags.Task, "task", "", "task name (defaults to proctor.run)")
	cmd.Flags().StringVar(&submitFlags.File, "file", "", "path to JSON submit request file")

	// Remote daemon connection
	cmd.Flags().StringVar(&submitFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&submitFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	return cmd
}

// createSignalCommand creates the signal subcommand
func createSignalCommand(proctorCommand command, signalFlags *SignalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signal",
		Short: "Send a signal to a process",
		Long: `Send a numbered signal to a registered process. Signals to processes
already recorded as terminated are skipped.

Examples:
  proctor signal --name=myjob --signal=15 --root=/var/run/proctor
  proctor signal --name=myjob --signal=9 --api-url=http://remote:8080/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return proctorCommand.Signal(SignalFlags{
				Name:       signalFlags.Name,
				Signal:     signalFlags.Signal,
				APIUrl:     signalFlags.APIUrl,
				APITimeout: signalFlags.APITimeout,
			})
		},
	}

	cmd.Flags().StringVar(&signalFlags.Name, "name", "", "process name (required)")
	cmd.Flags().IntVar(&signalFlags.Signal, "signal", 0, "signal number (required)")

	// Remote daemon connection
	cmd.Flags().StringVar(&signalFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&signalFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	// Mark required flags
	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagRequired("signal"); err != nil {
		panic(err)
	}

	return cmd
}

// createTerminateCommand creates the terminate subcommand
func createTerminateCommand(proctorCommand command, signalFlags *SignalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terminate",
		Short: "Gracefully terminate a process",
		Long: `Ask a registered process to shut down gracefully.

Examples:
  proctor terminate --name=myjob --root=/var/run/proctor
  proctor terminate --name=myjob --api-url=http://remote:8080/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return proctorCommand.Terminate(SignalFlags{
				Name:       signalFlags.Name,
				APIUrl:     signalFlags.APIUrl,
				APITimeout: signalFlags.APITimeout,
			})
		},
	}

	cmd.Flags().StringVar(&signalFlags.Name, "name", "", "process name (required)")

	// Remote daemon connection
	cmd.Flags().StringVar(&signalFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&signalFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	// Mark required flags
	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}

	return cmd
}

// createKillCommand creates the kill subcommand
func createKillCommand(proctorCommand command, signalFlags *SignalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kill",
		Short: "Force-kill a process",
		Long: `Force-kill a registered process with the strongest signal the
platform supports.

Examples:
  proctor kill --name=myjob --root=/var/run/proctor
  proctor kill --name=myjob --api-url=http://remote:8080/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return proctorCommand.Kill(SignalFlags{
				Name:       signalFlags.Name,
				APIUrl:     signalFlags.APIUrl,
				APITimeout: signalFlags.APITimeout,
			})
		},
	}

	cmd.Flags().StringVar(&signalFlags.Name, "name", "", "process name (required)")

	// Remote daemon connection
	cmd.Flags().StringVar(&signalFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&signalFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	// Mark required flags
	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}

	return cmd
}

// createRemoveCommand creates the remove subcommand
func createRemoveCommand(proctorCommand command, removeFlags *RemoveFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a process record",
		Long: `Remove a process record from the registry. Records of live processes
are refused unless --force is given, which kills the process first.

Examples:
  proctor remove --name=myjob --root=/var/run/proctor
  proctor remove --name=myjob --force --root=/var/run/proctor
  proctor remove --name=myjob --api-url=http://remote:8080/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return proctorCommand.Remove(RemoveFlags{
				Name:       removeFlags.Name,
				Force:      removeFlags.Force,
				APIUrl:     removeFlags.APIUrl,
				APITimeout: removeFlags.APITimeout,
			})
		},
	}

	cmd.Flags().StringVar(&removeFlags.Name, "name", "", "process name (required)")
	cmd.Flags().BoolVar(&removeFlags.Force, "force", false, "kill the process before removing its record")

	// Remote daemon connection
	cmd.Flags().StringVar(&removeFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&removeFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	// Mark required flags
	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}

	return cmd
}

// createCleanupCommand creates the cleanup subcommand
func createCleanupCommand(proctorCommand command, cleanupFlags *CleanupFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove all terminated process records",
		Long: `Remove the records of all terminated processes. With --force, live
processes are killed and removed as well.

Examples:
  proctor cleanup --root=/var/run/proctor
  proctor cleanup --force --root=/var/run/proctor
  proctor cleanup --api-url=http://remote:8080/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return proctorCommand.Cleanup(CleanupFlags{
				Force:      cleanupFlags.Force,
				APIUrl:     cleanupFlags.APIUrl,
				APITimeout: cleanupFlags.APITimeout,
			})
		},
	}

	cmd.Flags().BoolVar(&cleanupFlags.Force, "force", false, "kill live processes and remove their records too")

	// Remote daemon connection
	cmd.Flags().StringVar(&cleanupFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&cleanupFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	return cmd
}

// createServeCommand creates the serve subcommand
func createServeCommand(globalFlags *GlobalFlags) *cobra.Command {
	serveFlags := &ServeFlags{}

	cmd := &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Start the proctor daemon",
		Long: `Start the proctor daemon serving the registry HTTP API.
All configuration is loaded from a TOML config file.

Examples:
  proctor serve --config=config.toml
  proctor serve config.toml
  proctor serve config.toml --daemonize   # Run in background (pidfile configured via [server].pidfile)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			serveFlags.ConfigPath = globalFlags.ConfigPath
			return runServeCommand(serveFlags, args)
		},
	}

	// Add daemonize flags
	cmd.Flags().BoolVar(&serveFlags.Daemonize, "daemonize", false, "run as daemon in background")
	cmd.Flags().StringVar(&serveFlags.LogFile, "logfile", "", "redirect daemon output to file")

	return cmd
}

// createTemplateCommand creates the template command
func createTemplateCommand(proctorCommand command, templateFlags *TemplateCreateFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Create submit request templates",
		Long: `Create submit request templates for common process shapes.
Templates can be edited and submitted using the submit --file command.

Supported template types:
  shell     - Shell command string
  argv      - Argument vector command
  worker    - Background worker
  script    - Script interpreter invocation
  simple    - Basic process

Examples:
  proctor template --type=shell --name=my-job
  proctor template --type=worker --output=./custom-worker.json
  proctor template --type=simple --name=hello-world --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return proctorCommand.TemplateCreate(TemplateCreateFlags{
				Name:   templateFlags.Name,
				Type:   templateFlags.Type,
				Force:  templateFlags.Force,
				Output: templateFlags.Output,
			})
		},
	}

	// Add flags specific to template command
	cmd.Flags().StringVar(&templateFlags.Type, "type", "", "template type (required): shell, argv, worker, script, simple")
	cmd.Flags().StringVar(&templateFlags.Name, "name", "", "process name for template (defaults to type-sample)")
	cmd.Flags().StringVar(&templateFlags.Output, "output", "", "output file path (defaults to templates/name.json)")
	cmd.Flags().BoolVar(&templateFlags.Force, "force", false, "overwrite existing template file")

	// Mark required flags
	if err := cmd.MarkFlagRequired("type"); err != nil {
		panic(err)
	}

	return cmd
}
