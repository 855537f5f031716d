package export

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/claimaudit/internal/model"
)

// WriteFlags encodes the result's flags as a Parquet file on w. A result with
// no flags still produces a valid file with the schema and zero rows.
func WriteFlags(w io.Writer, result *model.AuditResult) (int, error) {
	rows := Rows(result)
	pw := parquet.NewGenericWriter[FlagRow](w)
	n, err := pw.Write(rows)
	if err != nil {
		pw.Close()
		return n, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return n, fmt.Errorf("close parquet writer: %w", err)
	}
	return n, nil
}

// WriteFlagsFile writes the flags to path, replacing any existing file.
func WriteFlagsFile(path string, result *model.AuditResult) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}
	n, err := WriteFlags(f, result)
	if err != nil {
		f.Close()
		return n, err
	}
	return n, f.Close()
}
