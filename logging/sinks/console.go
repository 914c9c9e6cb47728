package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"siegeline/server/logging"
)

type ConsoleSink struct {
	logger   *log.Logger
	useColor bool
}

func NewConsoleSink(w io.Writer, cfg logging.ConsoleConfig) *ConsoleSink {
	return &ConsoleSink{
		logger:   log.New(w, "", log.LstdFlags),
		useColor: cfg.UseColor,
	}
}

func (s *ConsoleSink) Write(event logging.Event) error {
	if s.logger == nil {
		return nil
	}
	payload := formatPayload(event.Payload)
	targets := formatTargets(event.Targets)
	s.logger.Printf("[%s] tick=%d actor=%s severity=%s%s%s", event.Type, event.Tick, formatEntity(event.Actor), s.severityLabel(event.Severity), targets, payload)
	return nil
}

// severityLabel wraps the severity in an ANSI color when configured.
func (s *ConsoleSink) severityLabel(sev logging.Severity) string {
	label := formatSeverity(sev)
	if !s.useColor {
		return label
	}
	switch sev {
	case logging.SeverityDebug:
		return "\x1b[90m" + label + "\x1b[0m"
	case logging.SeverityWarn:
		return "\x1b[33m" + label + "\x1b[0m"
	case logging.SeverityError:
		return "\x1b[31m" + label + "\x1b[0m"
	default:
		return label
	}
}

func (s *ConsoleSink) Close(context.Context) error {
	return nil
}

func formatSeverity(sev logging.Severity) string {
	switch sev {
	case logging.SeverityDebug:
		return "debug"
	case logging.SeverityInfo:
		return "info"
	case logging.SeverityWarn:
		return "warn"
	case logging.SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

func formatEntity(ref logging.EntityRef) string {
	if ref.ID == 0 {
		return string(ref.Kind)
	}
	if ref.Kind == "" {
		return fmt.Sprintf("%d", ref.ID)
	}
	return fmt.Sprintf("%s:%d", ref.Kind, ref.ID)
}

func formatTargets(targets []logging.EntityRef) string {
	if len(targets) == 0 {
		return ""
	}
	parts := make([]string, 0, len(targets))
	for _, ref := range targets {
		parts = append(parts, formatEntity(ref))
	}
	return " targets=" + strings.Join(parts, ",")
}

func formatPayload(payload any) string {
	if payload == nil {
		return ""
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(" payload=%v", payload)
	}
	return " payload=" + string(data)
}
