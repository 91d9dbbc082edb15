package domain

import (
	"encoding/json"
	"time"
)

// Bus channels and streams.
const (
	ChannelReports = "ch:reports"
	StreamReports  = "stream:reports"
	StreamStudies  = "stream:studies"
)

// StudyChannel is the pub/sub channel carrying progress for one study.
func StudyChannel(studyID string) string {
	return "ch:study:" + studyID
}

// Event types carried on the bus.
const (
	EventReportCreated  = "report_created"
	EventStudyProgress  = "study_progress"
	EventStudyCompleted = "study_completed"
)

// Event is the envelope of every bus message.
type Event struct {
	Type string          `json:"type"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data"`
}

// NewEvent marshals data into an Event envelope.
func NewEvent(typ string, at time.Time, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Type: typ, Time: at.UTC(), Data: raw})
}
