// Package output writes evicted flow summaries to a structured log file,
// one logrus entry per summary, as a lightweight alternative to the JSON
// UDP emitter for local inspection/archival.
package output

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/netflowd/netflowd/internal/emit"
	"github.com/netflowd/netflowd/internal/flowstore"
)

// FileWriter handles file output for evicted flow summaries.
type FileWriter struct {
	logger  *logrus.Logger
	enabled bool
}

// NewFileWriter creates a new file output writer for flow summaries.
func NewFileWriter(enabled bool, outputFile, format string) (*FileWriter, error) {
	if !enabled || outputFile == "" {
		return &FileWriter{enabled: false}, nil
	}

	log := logrus.New()

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	file, err := os.OpenFile(outputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	log.SetOutput(file)
	log.SetLevel(logrus.InfoLevel)

	return &FileWriter{logger: log, enabled: true}, nil
}

// Emit satisfies emit.Sink: it logs one structured entry per summary.
func (w *FileWriter) Emit(s *flowstore.Summary) error {
	if !w.enabled {
		return nil
	}
	doc := emit.ToDocument(s)

	w.logger.WithFields(logrus.Fields{
		"src_addr":     doc.SrcAddr,
		"dst_addr":     doc.DstAddr,
		"protocol":     doc.Protocol,
		"src_port":     doc.SrcPort,
		"dst_port":     doc.DstPort,
		"tcp_flags":    doc.TCPFlags,
		"start_time":   doc.StartTime,
		"end_time":     doc.EndTime,
		"source_count": doc.SourceCount,
	}).Info("flow evicted")

	return nil
}

// Close closes the file writer.
func (w *FileWriter) Close() error {
	if w.logger == nil {
		return nil
	}
	if f, ok := w.logger.Out.(*os.File); ok {
		return f.Close()
	}
	return nil
}
