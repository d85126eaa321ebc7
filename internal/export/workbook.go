// Package export renders a portal snapshot as an xlsx workbook, one sheet per table.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type sheet struct {
	name    string
	headers []string
	rows    [][]interface{}
}

func Workbook(snap *models.Snapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheets := []sheet{
		usersSheet(snap),
		topicsSheet(snap),
		groupsSheet(snap),
		membersSheet(snap),
		projectsSheet(snap),
		assessmentsSheet(snap),
		milestonesSheet(snap),
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, err
		}
		if err := writeSheet(f, s); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", s.name, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, s sheet) error {
	header := make([]interface{}, len(s.headers))
	for i, h := range s.headers {
		header[i] = h
	}
	if err := f.SetSheetRow(s.name, "A1", &header); err != nil {
		return err
	}

	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}

	return f.SetPanes(s.name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func tsp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return ts(*t)
}

func usersSheet(snap *models.Snapshot) sheet {
	s := sheet{name: "Users", headers: []string{"ID", "Username", "Email", "Full name", "Role", "Enrollment number", "Department", "Created"}}
	for _, u := range snap.Users {
		s.rows = append(s.rows, []interface{}{u.ID, u.Username, u.Email, u.FullName, string(u.Role),
			str(u.EnrollmentNumber), str(u.Department), ts(u.CreatedAt)})
	}
	return s
}

func topicsSheet(snap *models.Snapshot) sheet {
	s := sheet{name: "Topics", headers: []string{"ID", "Title", "Technology", "Project type", "Complexity", "Submitted by", "Status", "Feedback", "Reviewed by", "Reviewed at", "Created"}}
	for _, t := range snap.Topics {
		s.rows = append(s.rows, []interface{}{t.ID, t.Title, t.Technology, t.ProjectType, string(t.Complexity),
			t.SubmittedBy, string(t.Status), str(t.Feedback), str(t.ReviewedBy), tsp(t.ReviewedAt), ts(t.CreatedAt)})
	}
	return s
}

func groupsSheet(snap *models.Snapshot) sheet {
	s := sheet{name: "Groups", headers: []string{"ID", "Name", "Description", "Faculty", "Leader", "Max size", "Created"}}
	for _, g := range snap.Groups {
		s.rows = append(s.rows, []interface{}{g.ID, g.Name, g.Description, str(g.FacultyID), g.LeaderID, g.MaxSize, ts(g.CreatedAt)})
	}
	return s
}

func membersSheet(snap *models.Snapshot) sheet {
	s := sheet{name: "Members", headers: []string{"ID", "Group", "User", "Status", "Invited", "Responded"}}
	for _, m := range snap.Members {
		s.rows = append(s.rows, []interface{}{m.ID, m.GroupID, m.UserID, string(m.Status), ts(m.InvitedAt), tsp(m.RespondedAt)})
	}
	return s
}

func projectsSheet(snap *models.Snapshot) sheet {
	s := sheet{name: "Projects", headers: []string{"ID", "Topic", "Student", "Group", "Term", "Progress", "Status", "Created"}}
	for _, p := range snap.Projects {
		s.rows = append(s.rows, []interface{}{p.ID, p.TopicID, p.StudentID, str(p.GroupID), p.Term, p.Progress, string(p.Status), ts(p.CreatedAt)})
	}
	return s
}

func assessmentsSheet(snap *models.Snapshot) sheet {
	s := sheet{name: "Assessments", headers: []string{"ID", "Project", "Faculty", "Marks", "Feedback", "Updated"}}
	for _, a := range snap.Assessments {
		s.rows = append(s.rows, []interface{}{a.ID, a.ProjectID, a.FacultyID, a.Score, a.Feedback, ts(a.UpdatedAt)})
	}
	return s
}

func milestonesSheet(snap *models.Snapshot) sheet {
	s := sheet{name: "Milestones", headers: []string{"ID", "Project", "Title", "Due", "Status", "Completed"}}
	for _, m := range snap.Milestones {
		s.rows = append(s.rows, []interface{}{m.ID, m.ProjectID, m.Title, ts(m.DueDate), string(m.Status), tsp(m.CompletedAt)})
	}
	return s
}
