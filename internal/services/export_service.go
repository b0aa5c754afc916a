package services

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/yukikurage/qa-tracker-api/internal/repository"
)

const exportTimeLayout = "2006-01-02 15:04"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ExportService renders testers and bugs as CSV or printable HTML
type ExportService struct {
	testerRepo repository.TesterRepository
	bugRepo    repository.BugRepository
	now        func() time.Time
}

func NewExportService(testerRepo repository.TesterRepository, bugRepo repository.BugRepository) *ExportService {
	return &ExportService{
		testerRepo: testerRepo,
		bugRepo:    bugRepo,
		now:        time.Now,
	}
}

var testerColumns = []string{
	"ID", "Имя", "Email", "Никнейм", "Telegram", "Устройство", "ОС", "Версия ОС",
	"Статус", "Дата регистрации", "Багов", "Рейтинг",
}

var bugColumns = []string{
	"ID", "Заголовок", "Тестировщик", "Приоритет", "Статус", "Тип", "Создан", "Исправлен",
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportTimeLayout)
}

func (s *ExportService) testerRows() ([][]string, error) {
	testers, err := s.testerRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list testers: %w", err)
	}

	rows := make([][]string, 0, len(testers))
	for _, t := range testers {
		rows = append(rows, []string{
			strconv.FormatUint(t.ID, 10),
			t.Name,
			t.Email,
			optional(t.Nickname),
			optional(t.Telegram),
			t.DeviceType,
			t.OS,
			optional(t.OSVersion),
			string(t.Status),
			formatTime(&t.RegistrationDate),
			strconv.Itoa(t.BugsCount),
			strconv.Itoa(t.Rating),
		})
	}
	return rows, nil
}

func (s *ExportService) bugRows() ([][]string, error) {
	bugs, _, err := s.bugRepo.List(repository.BugFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list bugs: %w", err)
	}

	rows := make([][]string, 0, len(bugs))
	for _, b := range bugs {
		testerName := ""
		if b.Tester != nil {
			testerName = b.Tester.Name
		}
		rows = append(rows, []string{
			strconv.FormatUint(b.ID, 10),
			b.Title,
			testerName,
			string(b.Priority),
			string(b.Status),
			string(b.Type),
			formatTime(&b.CreatedAt),
			formatTime(b.FixedAt),
		})
	}
	return rows, nil
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 24px; }
h1 { font-size: 20px; }
table { border-collapse: collapse; width: 100%; font-size: 12px; }
th, td { border: 1px solid #ccc; padding: 4px 6px; text-align: left; }
th { background: #f0f0f0; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Сформировано: {{.GeneratedAt}} · Записей: {{len .Rows}}</p>
<table>
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

type report struct {
	Title       string
	GeneratedAt string
	Columns     []string
	Rows        [][]string
}

func (s *ExportService) writeHTML(w io.Writer, title string, columns []string, rows [][]string) error {
	return reportTemplate.Execute(w, report{
		Title:       title,
		GeneratedAt: s.now().Format(exportTimeLayout),
		Columns:     columns,
		Rows:        rows,
	})
}

func (s *ExportService) TestersCSV(w io.Writer) error {
	rows, err := s.testerRows()
	if err != nil {
		return err
	}
	return writeCSV(w, testerColumns, rows)
}

func (s *ExportService) TestersHTML(w io.Writer) error {
	rows, err := s.testerRows()
	if err != nil {
		return err
	}
	return s.writeHTML(w, "Тестировщики", testerColumns, rows)
}

func (s *ExportService) BugsCSV(w io.Writer) error {
	rows, err := s.bugRows()
	if err != nil {
		return err
	}
	return writeCSV(w, bugColumns, rows)
}

func (s *ExportService) BugsHTML(w io.Writer) error {
	rows, err := s.bugRows()
	if err != nil {
		return err
	}
	return s.writeHTML(w, "Баги", bugColumns, rows)
}
