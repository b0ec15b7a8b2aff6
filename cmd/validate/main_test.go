package main

import (
	"testing"

	"rostervet/internal/service"
)

func TestMadeProgress(t *testing.T) {
	tests := []struct {
		name   string
		report service.BatchReport
		want   bool
	}{
		{name: "drained queue", report: service.BatchReport{}, want: false},
		{
			// Persisted records that classify pending are refetched next
			// run, so they are not progress.
			name:   "all records stay pending",
			report: service.BatchReport{Fetched: 2, Processed: 2, Pending: 2},
			want:   false,
		},
		{
			name:   "store failures only",
			report: service.BatchReport{Fetched: 1, Errors: 1},
			want:   false,
		},
		{
			name:   "one record validated",
			report: service.BatchReport{Fetched: 3, Processed: 3, Validated: 1, Pending: 2},
			want:   true,
		},
		{
			name:   "one record flagged for review",
			report: service.BatchReport{Fetched: 1, Processed: 1, Review: 1},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := madeProgress(&tt.report); got != tt.want {
				t.Errorf("madeProgress() = %v, want %v", got, tt.want)
			}
		})
	}
}
