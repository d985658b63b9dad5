package config

// NSQ topic and channel names for the ingestion pipeline.
const (
	TopicIngestTask = "ingest.task"
	ChannelPipeline = "pipeline"
)
