package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/cwygoda/harvest/internal/domain"
)

const reportSheet = "report"

// WriteReport writes entries to path in the order given, replacing any
// existing file. The report is written next to path first and renamed over
// it, so readers never observe a partial report.
func WriteReport(path string, entries []domain.ReportEntry) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	tmpPath := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	switch f {
	case formatXLSX:
		err = writeXLSX(tmp, entries)
	case formatCSV:
		err = writeCSV(tmp, entries)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	ok = true
	return nil
}

func writeCSV(w io.Writer, entries []domain.ReportEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportHeader); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{e.Name, strconv.FormatBool(e.Succeeded), strconv.FormatBool(e.Skipped), e.SourceURL, e.FailureDetails}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, entries []domain.ReportEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(reportSheet)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(ReportHeader))
	for i, h := range ReportHeader {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{e.Name, e.Succeeded, e.Skipped, e.SourceURL, e.FailureDetails}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
