package pipeline

// Status tags a phase of the transcription pipeline.
type Status string

// Pipeline states, in order of occurrence. Chunking is skipped for
// payloads that fit in a single call.
const (
	StatusAnalyzing       Status = "analyzing"
	StatusChunking        Status = "chunking"
	StatusTranscribing    Status = "transcribing"
	StatusReconciling     Status = "reconciling"
	StatusCompleted       Status = "completed"
	StatusPartiallyFailed Status = "partially_failed"
)

// Progress is an immutable notification emitted at every state transition
// and after each transcribed chunk.
type Progress struct {
	Status      Status
	Message     string  // human-readable
	ChunkIndex  int     // 1-based chunk just processed; 0 outside the chunk loop
	TotalChunks int     // 0 until the chunk count is known
	Fraction    float64 // completedChunks / totalChunks
}

// Sink receives progress notifications. It is an observation channel only:
// nothing it does can alter pipeline control flow, and losing a
// notification never breaks correctness. A nil Sink suppresses reporting.
type Sink func(Progress)
