package export

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/tealeg/xlsx"

	apperrors "audio-sessions/internal/app/errors"
	"audio-sessions/internal/app/model"
)

// Header is the session table column order
var Header = []string{"ID", "Title", "Recorded At", "Duration (s)", "Sample Rate", "Channels", "Transcribed", "Notes"}

// DurationColumn is the index of the duration in Header
const DurationColumn = 3

// Row renders one session in table column order. Durations keep full precision
// and line breaks are written as \n so a CSV re-read yields the same cells.
func Row(s model.Session) []string {
	return []string{
		strconv.FormatInt(s.ID, 10),
		model.NormalizeNewlines(s.Title),
		s.RecordedAt.UTC().Format(time.RFC3339),
		strconv.FormatFloat(s.DurationSec, 'f', -1, 64),
		strconv.Itoa(s.SampleRate),
		strconv.Itoa(s.Channels),
		transcribedFlag(s),
		model.NormalizeNewlines(s.Notes),
	}
}

func transcribedFlag(s model.Session) string {
	if s.HasTranscript() {
		return "yes"
	}
	return "no"
}

// Select keeps the sessions whose id is in ids. An empty ids keeps all.
func Select(sessions []model.Session, ids []int64) []model.Session {
	if len(ids) == 0 {
		return sessions
	}
	return lo.Filter(sessions, func(s model.Session, _ int) bool {
		return lo.Contains(ids, s.ID)
	})
}

// WriteCSV writes a header and one row per session
func WriteCSV(w io.Writer, sessions []model.Session) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return apperrors.ErrIO.With(err)
	}
	for _, s := range sessions {
		if err := cw.Write(Row(s)); err != nil {
			return apperrors.ErrIO.With(err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperrors.ErrIO.With(err)
	}
	return nil
}

// ToCSV writes the selected sessions to outputFilePath
func ToCSV(sessions []model.Session, ids []int64, outputFilePath string) error {
	f, err := os.Create(outputFilePath)
	if err != nil {
		return apperrors.ErrIO.With(err)
	}
	if err := WriteCSV(f, Select(sessions, ids)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return apperrors.ErrIO.With(err)
	}
	return nil
}

// ReadCSV parses rows written by WriteCSV, header excluded
func ReadCSV(r io.Reader) ([][]string, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, apperrors.ErrIO.With(err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

// ToExcel writes the selected sessions to an xlsx workbook, with transcript columns appended.
func ToExcel(sessions []model.Session, ids []int64, outputFilePath string) error {
	file, err := workbook(Select(sessions, ids))
	if err != nil {
		return err
	}
	if err := file.Save(outputFilePath); err != nil {
		return apperrors.ErrIO.With(err)
	}
	return nil
}

// WriteExcel streams the workbook for sessions to w
func WriteExcel(w io.Writer, sessions []model.Session) error {
	file, err := workbook(sessions)
	if err != nil {
		return err
	}
	if err := file.Write(w); err != nil {
		return apperrors.ErrIO.With(err)
	}
	return nil
}

func workbook(sessions []model.Session) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Sessions")
	if err != nil {
		return nil, apperrors.ErrIO.With(err)
	}

	headerRow := sheet.AddRow()
	for _, h := range append(append([]string{}, Header...), "Transcript", "Transformed") {
		headerRow.AddCell().Value = h
	}

	for _, s := range sessions {
		row := sheet.AddRow()
		for _, v := range Row(s) {
			row.AddCell().Value = v
		}
		row.AddCell().Value = s.TranscriptText()
		row.AddCell().Value = s.TransformedText()
	}
	return file, nil
}
