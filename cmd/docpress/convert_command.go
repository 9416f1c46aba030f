package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"docpress/internal/config"
	"docpress/internal/daemon"
	"docpress/internal/ipc"
	"docpress/internal/worker"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		toFormat  string
		outputDir string
		overwrite bool
		rawOpts   []string
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "convert <files...>",
		Short: "Convert documents and stream progress",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := make([]string, 0, len(args))
			for _, arg := range args {
				expanded, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				inputs = append(inputs, expanded)
			}

			options, err := parseOptions(rawOpts)
			if err != nil {
				return err
			}
			if strings.TrimSpace(toFormat) != "" {
				options["toFormat"] = strings.TrimSpace(toFormat)
			}
			if overwrite {
				options["overwrite"] = true
			}

			resolvedOutput := ""
			if strings.TrimSpace(outputDir) != "" {
				resolvedOutput, err = config.ExpandPath(outputDir)
				if err != nil {
					return err
				}
			}

			return ctx.withClient(func(client *ipc.Client) error {
				start, err := client.ConvertStart(ipc.ConvertStartRequest{
					Command:    "convert",
					InputPaths: inputs,
					OutputDir:  resolvedOutput,
					Options:    options,
				})
				if err != nil {
					return err
				}
				return streamConversion(cmd, client, start.Token, jsonOut)
			})
		},
	}

	cmd.Flags().StringVar(&toFormat, "to", "", "Target format (e.g. pdf, docx, html)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Destination directory for converted files")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing output files")
	cmd.Flags().StringArrayVar(&rawOpts, "opt", nil, "Extra worker option as key=value (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the raw event stream as JSON lines")
	return cmd
}

// streamConversion tails the job until it resolves, rendering each event as
// it arrives. The daemon guarantees exactly one terminal result per job.
func streamConversion(cmd *cobra.Command, client *ipc.Client, token string, jsonOut bool) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	colorize := shouldColorize(out)

	var cursor uint64
	for {
		resp, err := client.ConvertEvents(ipc.ConvertEventsRequest{
			Token: token,
			After: cursor,
			Wait:  true,
		})
		if err != nil {
			return err
		}
		cursor = resp.Next

		for _, evt := range resp.Events {
			if jsonOut {
				line, err := json.Marshal(evt)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(line))
				continue
			}
			renderEvent(out, errOut, evt.Event, colorize)
		}

		if resp.Done {
			return renderResult(cmd, resp.Result, jsonOut)
		}
	}
}

var stageTitle = cases.Title(language.English)

func renderEvent(out, errOut io.Writer, evt worker.Event, colorize bool) {
	switch evt.Type {
	case worker.EventProgress, worker.EventBatchProgress:
		var progress struct {
			Stage   string  `json:"stage"`
			Percent float64 `json:"percent"`
			Message string  `json:"message"`
		}
		if err := evt.Decode(&progress); err != nil {
			return
		}
		label := stageTitle.String(strings.ReplaceAll(progress.Stage, "_", " "))
		line := fmt.Sprintf("  [%3.0f%%] %s", progress.Percent, label)
		if progress.Message != "" {
			line += ": " + progress.Message
		}
		fmt.Fprintln(out, line)
	case worker.EventResult, worker.EventBatchResult:
		fmt.Fprintln(out, "  "+summarizeResultPayload(evt.Payload))
	case worker.EventError:
		fmt.Fprintln(errOut, renderStatusLine("worker", statusError, compactJSON(evt.Payload), colorize))
	case worker.EventRawError:
		fmt.Fprintln(errOut, renderStatusLine("worker", statusWarn, "unparseable output: "+evt.Raw, colorize))
	case worker.EventStderr:
		fmt.Fprintln(errOut, evt.Raw)
	}
}

func renderResult(cmd *cobra.Command, result *daemon.Result, jsonOut bool) error {
	if result == nil {
		return errors.New("daemon resolved the job without a result")
	}
	if jsonOut {
		line, err := json.Marshal(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(line))
		if !result.Success {
			return errConversionFailed
		}
		return nil
	}

	if result.Success {
		message := result.Message
		if message == "" {
			message = "conversion completed"
		}
		fmt.Fprintln(cmd.OutOrStdout(), message)
		return nil
	}
	if result.Error != "" {
		return fmt.Errorf("%w: %s", errConversionFailed, result.Error)
	}
	return errConversionFailed
}

// summarizeResultPayload extracts the output path when the worker reports
// one, falling back to the compact document.
func summarizeResultPayload(payload json.RawMessage) string {
	var doc struct {
		Output string `json:"output"`
	}
	if err := json.Unmarshal(payload, &doc); err == nil && doc.Output != "" {
		return "wrote " + doc.Output
	}
	return compactJSON(payload)
}

func compactJSON(payload json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		return string(payload)
	}
	return buf.String()
}

func parseOptions(raw []string) (map[string]any, error) {
	options := make(map[string]any, len(raw))
	for _, entry := range raw {
		key, value, found := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid option %q (expected key=value)", entry)
		}
		options[key] = parseOptionValue(strings.TrimSpace(value))
	}
	return options, nil
}

// parseOptionValue types option values the way the worker expects them:
// booleans and numbers stay typed, everything else is a string.
func parseOptionValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

var errConversionFailed = errors.New("conversion failed")
