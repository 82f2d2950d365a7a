package server

import (
	"errors"

	"github.com/lguimbarda/reportflow/flow/core"
	"github.com/lguimbarda/reportflow/history"
	"github.com/lguimbarda/reportflow/report"
)

type HealthResponse struct {
	Status  string `json:"status"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	Status report.Status `json:"status"`
}

type SubmitRequest struct {
	URL  *string `json:"url,omitempty"`
	File *string `json:"file,omitempty"`
}

type SlotResponse struct {
	Slot  string       `json:"slot"`
	OK    bool         `json:"ok"`
	Value any          `json:"value,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type HistoryResponse struct {
	Runs []history.Entry `json:"runs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func slotView[V any, E error](name string, r core.Result[V, E]) SlotResponse {
	v, err, ok := r.Get()
	if ok {
		return SlotResponse{Slot: name, OK: true, Value: v}
	}
	return SlotResponse{Slot: name, Error: &ErrorDetail{Kind: errorKind(err), Message: err.Error()}}
}

func errorKind(err error) string {
	var (
		ce *report.ContentError
		re *report.ReportError
		pe *report.ProjectError
	)
	switch {
	case errors.As(err, &pe):
		return pe.Kind.String()
	case errors.As(err, &re):
		return re.Kind.String()
	case errors.As(err, &ce):
		return ce.Kind.String()
	default:
		return "unknown"
	}
}
