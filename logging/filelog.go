package logging

import (
	"encoding/json"

	"rewritelab/rewrite"

	"github.com/rs/zerolog"
)

// Path is the default evaluation log directory.
const Path = "/var/log/rewritelab/"

// FileName is the default evaluation log file name.
const FileName = "rewrite_json.log"

type filelogResultsLogger struct {
	fileSystem   LogFileSystem
	file         LogFile
	logger       zerolog.Logger
	writelogline chan []byte
	writeDone    chan bool
}

// NewFileResultsLogger creates a results logger that writes one JSON record
// per evaluation to a log file.
func NewFileResultsLogger(fileSystem LogFileSystem, logger zerolog.Logger) (rewrite.ResultsLogger, error) {
	r := &filelogResultsLogger{fileSystem: fileSystem, logger: logger}

	err := fileSystem.MkDir(Path)
	if err != nil {
		logger.Error().Err(err).Str("path", Path).Msg("Failed to create the directory while initializing")
		return nil, err
	}

	r.file, err = fileSystem.Open(Path + FileName)
	if err != nil {
		logger.Error().Err(err).Str("file", Path+FileName).Msg("Failed to open the file at initiation")
		return nil, err
	}

	r.writelogline = make(chan []byte)
	r.writeDone = make(chan bool)
	go func() {
		for v := range r.writelogline {
			r.file.Append(v)
			r.file.Append([]byte("\n"))
			r.writeDone <- true
		}
	}()

	return r, nil
}

func (l *filelogResultsLogger) EvaluationCompleted(input rewrite.EvalInput, output rewrite.EvalOutput) {
	lg := newEvaluationLogEntry(input, output)

	bb, err := json.Marshal(lg)
	if err != nil {
		l.logger.Error().Err(err).Msg("Error while marshaling JSON results log")
		return
	}

	l.writelogline <- bb
	<-l.writeDone
}

func (l *filelogResultsLogger) InputRejected(input rewrite.EvalInput, err error) {
	lg := newInputRejectedLogEntry(input, err)

	bb, merr := json.Marshal(lg)
	if merr != nil {
		l.logger.Error().Err(merr).Msg("Error while marshaling JSON results log")
		return
	}

	l.writelogline <- bb
	<-l.writeDone
}
