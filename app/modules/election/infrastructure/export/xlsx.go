package electionexport

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary   = "Summary"
	SheetTally     = "Tally"
	SheetBallots   = "Ballots"
	SheetAudit     = "Audit"
	SheetVoters    = "Voters"
	excelTimestamp = time.RFC3339
)

// WriteXLSX writes the document as a workbook with one sheet per section.
// The Voters sheet only exists for documents built with IncludeVoters.
func WriteXLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to rename default sheet: %w", err)
	}
	closesAt := ""
	if doc.ClosesAt != nil {
		closesAt = doc.ClosesAt.Format(excelTimestamp)
	}
	summary := [][]any{
		{"ID", int64(doc.ID)},
		{"Title", doc.Title},
		{"Status", string(doc.Status)},
		{"System", string(doc.System)},
		{"Minimum votes", doc.MinimumVotes},
		{"Created", doc.CreatedAt.Format(excelTimestamp)},
		{"Closes", closesAt},
		{"Ballots", len(doc.Ballots)},
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return err
	}

	tally := [][]any{{"Candidate ID", "Name", "Votes"}}
	for _, entry := range TallyDocument(doc) {
		tally = append(tally, []any{int(entry.ID), entry.Name, entry.Votes})
	}
	if err := writeSheet(f, SheetTally, tally); err != nil {
		return err
	}

	ballots := [][]any{{"Voter ID", "Selections", "Submitted"}}
	for _, b := range doc.Ballots {
		ids := make([]string, 0, len(b.Selections))
		for _, c := range b.Selections {
			ids = append(ids, strconv.Itoa(int(c)))
		}
		submitted := ""
		if b.SubmittedAt != nil {
			submitted = b.SubmittedAt.Format(excelTimestamp)
		}
		ballots = append(ballots, []any{int(b.VoterID), strings.Join(ids, ","), submitted})
	}
	if err := writeSheet(f, SheetBallots, ballots); err != nil {
		return err
	}

	audit := [][]any{{"Time", "Type"}}
	for _, sc := range doc.StatusChanges {
		audit = append(audit, []any{sc.Time.Format(excelTimestamp), sc.Type.String()})
	}
	if err := writeSheet(f, SheetAudit, audit); err != nil {
		return err
	}

	if doc.Voters != nil {
		voters := [][]any{{"Voter ID", "Name"}}
		for _, v := range *doc.Voters {
			voters = append(voters, []any{int(v.ID), v.Name})
		}
		if err := writeSheet(f, SheetVoters, voters); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
