package config

var NewLogHandler = newLogHandler

func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

func NewVectorIndexForTest(backend, projectID, dsn string) *VectorIndex {
	return &VectorIndex{backend: backend, projectID: projectID, dsn: dsn}
}

func NewLLMForTest(provider, geminiProject, openaiAPIKey string) *LLM {
	return &LLM{provider: provider, geminiProject: geminiProject, geminiLocation: "us-central1", openaiAPIKey: openaiAPIKey}
}

func NewSlackForTest(botToken, channelID string) *Slack {
	return &Slack{botToken: botToken, channelID: channelID}
}

func NewCorpusForTest(path string) *Corpus {
	return &Corpus{path: path}
}

