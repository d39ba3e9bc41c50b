package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"smartshala/school/internal/model"
)

// RowFailure echoes a rejected row together with the rejection reason.
type RowFailure struct {
	Row    map[string]string `json:"row"`
	Reason string            `json:"reason"`
}

// ImportReport is the aggregate outcome of one bulk import run.
type ImportReport struct {
	Succeeded []string
	Failed    []RowFailure
}

func (r ImportReport) SuccessCount() int { return len(r.Succeeded) }
func (r ImportReport) FailureCount() int { return len(r.Failed) }

// ImportStudents applies student registration to every row in order.
// Expected per-row failures are recorded and the batch continues; any
// other error aborts the remainder of the batch. Each successful row
// commits immediately, so a later row reusing an earlier row's email is
// reported as a duplicate.
func (s *Service) ImportStudents(ctx context.Context, rows []map[string]string) (ImportReport, error) {
	report := ImportReport{Succeeded: []string{}, Failed: []RowFailure{}}
	for _, row := range rows {
		in := RegisterInput{
			Name:        row["name"],
			Email:       row["email"],
			Password:    row["password"],
			Role:        model.RoleStudent,
			ClassroomID: strings.TrimSpace(row["classroomId"]),
			RollNo:      parseRollNo(row["rollNo"]),
		}
		if _, err := s.Register(ctx, in); err != nil {
			reason, rowLocal := rowFailureReason(err)
			if !rowLocal {
				return ImportReport{}, err
			}
			report.Failed = append(report.Failed, RowFailure{Row: row, Reason: reason})
			continue
		}
		report.Succeeded = append(report.Succeeded, strings.TrimSpace(row["email"]))
	}
	return report, nil
}

// ImportTeachers is the teacher counterpart of ImportStudents. Teacher
// rows carry no profile fields, which is why the two entry points stay
// separate instead of sharing a role parameter.
func (s *Service) ImportTeachers(ctx context.Context, rows []map[string]string) (ImportReport, error) {
	report := ImportReport{Succeeded: []string{}, Failed: []RowFailure{}}
	for _, row := range rows {
		in := RegisterInput{
			Name:     row["name"],
			Email:    row["email"],
			Password: row["password"],
			Role:     model.RoleTeacher,
		}
		if _, err := s.Register(ctx, in); err != nil {
			reason, rowLocal := rowFailureReason(err)
			if !rowLocal {
				return ImportReport{}, err
			}
			report.Failed = append(report.Failed, RowFailure{Row: row, Reason: reason})
			continue
		}
		report.Succeeded = append(report.Succeeded, strings.TrimSpace(row["email"]))
	}
	return report, nil
}

func rowFailureReason(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrValidation):
		return "missing required fields", true
	case errors.Is(err, ErrDuplicateIdentity):
		return "email already exists", true
	case errors.Is(err, ErrNotFound):
		return "classroom not found", true
	default:
		return "", false
	}
}

// parseRollNo accepts plain integers and the decimal renderings
// spreadsheet cells produce for numeric values ("42", "42.0").
func parseRollNo(raw string) int {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int(f)) {
		return int(f)
	}
	return 0
}
