package model

import "time"

// TurnLog summarizes one completed conversation turn for analytics
type TurnLog struct {
	ChatID      ChatID    `bigquery:"chat_id" json:"chat_id"`
	UserID      UserID    `bigquery:"user_id" json:"user_id"`
	Model       string    `bigquery:"model" json:"model"`
	Rounds      int       `bigquery:"rounds" json:"rounds"`
	ToolCalls   int       `bigquery:"tool_calls" json:"tool_calls"`
	Tools       []string  `bigquery:"tools" json:"tools"`
	Capped      bool      `bigquery:"capped" json:"capped"`
	StartedAt   time.Time `bigquery:"started_at" json:"started_at"`
	CompletedAt time.Time `bigquery:"completed_at" json:"completed_at"`
}
