package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"

	socketPath string

	openTempo       float64
	openPitch       float64
	openSkipSilence bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultSocketPath() string {
	if p := os.Getenv("TEMPOPITCH_IPC_SOCKET"); p != "" {
		return p
	}
	return "/tmp/tempopitch.sock"
}

var rootCmd = &cobra.Command{
	Use:   "tempopitch-ctl",
	Short: "Control a running tempopitchd over its Unix socket",
	Long: `tempopitch-ctl sends control events to tempopitchd.

Any control command opens a session if none is open; accept, cancel and
reset close it.

Examples:
  tempopitch-ctl tempo 1.25
  tempopitch-ctl step pitch down
  tempopitch-ctl semitone-mode on
  tempopitch-ctl accept
  tempopitch-ctl state`,
	Version:      version,
	SilenceUsage: true,
}

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open a session, optionally overriding the current values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data := map[string]any{}
		if cmd.Flags().Changed("tempo") {
			data["tempo"] = openTempo
		}
		if cmd.Flags().Changed("pitch") {
			data["pitch"] = openPitch
		}
		if cmd.Flags().Changed("skip-silence") {
			data["skip_silence"] = openSkipSilence
		}
		return send(cmd, "open_session", data)
	},
}

var tempoCmd = &cobra.Command{
	Use:   "tempo <value>",
	Short: "Set tempo (0.10 to 3.00)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parseFloat(args[0])
		if err != nil {
			return err
		}
		return send(cmd, "set_tempo", map[string]any{"value": v})
	},
}

var pitchCmd = &cobra.Command{
	Use:   "pitch <value>",
	Short: "Set pitch (0.10 to 3.00)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parseFloat(args[0])
		if err != nil {
			return err
		}
		return send(cmd, "set_pitch", map[string]any{"value": v})
	},
}

var semitonesCmd = &cobra.Command{
	Use:   "semitones <n>",
	Short: "Set pitch to a semitone offset (-12 to +12)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(strings.TrimPrefix(args[0], "+"))
		if err != nil {
			return fmt.Errorf("invalid semitone offset %q", args[0])
		}
		return send(cmd, "set_pitch_semitones", map[string]any{"semitones": n})
	},
}

var seekCmd = &cobra.Command{
	Use:   "seek <tempo|pitch|semitone> <progress>",
	Short: "Apply a slider position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, err := targetEvent("seek", args[0])
		if err != nil {
			return err
		}
		p, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid progress %q", args[1])
		}
		return send(cmd, typ, map[string]any{"progress": p})
	},
}

var stepCmd = &cobra.Command{
	Use:   "step <tempo|pitch|semitone> <up|down>",
	Short: "Move one step up or down",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, err := targetEvent("step", args[0])
		if err != nil {
			return err
		}
		dir, err := parseDirection(args[1])
		if err != nil {
			return err
		}
		return send(cmd, typ, map[string]any{"direction": dir})
	},
}

var stepSizeCmd = &cobra.Command{
	Use:   "step-size <0.01|0.05|0.10|0.25|1.00>",
	Short: "Select the step size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parseFloat(args[0])
		if err != nil {
			return err
		}
		return send(cmd, "set_step_size", map[string]any{"step": v})
	},
}

func toggleCmd(use, short, typ string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <on|off>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			return send(cmd, typ, map[string]any{"enabled": on})
		},
	}
}

func terminalCmd(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return send(cmd, use, nil)
		},
	}
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the daemon state as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		resp, err := request(socketPath, "get_state", nil)
		if err != nil {
			return err
		}
		var out bytes.Buffer
		if err := json.Indent(&out, resp.State, "", "  "); err != nil {
			return fmt.Errorf("format state: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.String())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&socketPath, "socket", "s", defaultSocketPath(), "Unix domain socket path of tempopitchd")

	openCmd.Flags().Float64Var(&openTempo, "tempo", 1.0, "Tempo to open with")
	openCmd.Flags().Float64Var(&openPitch, "pitch", 1.0, "Pitch to open with")
	openCmd.Flags().BoolVar(&openSkipSilence, "skip-silence", false, "Skip-silence flag to open with")

	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(tempoCmd)
	rootCmd.AddCommand(pitchCmd)
	rootCmd.AddCommand(semitonesCmd)
	rootCmd.AddCommand(seekCmd)
	rootCmd.AddCommand(stepCmd)
	rootCmd.AddCommand(stepSizeCmd)
	rootCmd.AddCommand(toggleCmd("hook", "Couple (on) or decouple (off) tempo and pitch", "set_hook"))
	rootCmd.AddCommand(toggleCmd("semitone-mode", "Adjust pitch by semitones", "set_semitone_mode"))
	rootCmd.AddCommand(toggleCmd("skip-silence", "Skip silent passages", "set_skip_silence"))
	rootCmd.AddCommand(terminalCmd("accept", "Commit the current values and close the session"))
	rootCmd.AddCommand(terminalCmd("cancel", "Restore the values the session opened with"))
	rootCmd.AddCommand(terminalCmd("reset", "Restore defaults and close the session"))
	rootCmd.AddCommand(stateCmd)
}

func send(cmd *cobra.Command, typ string, data any) error {
	if _, err := request(socketPath, typ, data); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}

func targetEvent(verb, target string) (string, error) {
	switch target {
	case "tempo", "pitch", "semitone":
		return verb + "_" + target, nil
	default:
		return "", fmt.Errorf("unknown target %q (want tempo, pitch or semitone)", target)
	}
}

func parseDirection(s string) (int, error) {
	switch strings.ToLower(s) {
	case "up", "+", "+1", "1":
		return 1, nil
	case "down", "-":
		return -1, nil
	default:
		return 0, fmt.Errorf("invalid direction %q (want up or down)", s)
	}
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid toggle %q (want on or off)", s)
	}
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
