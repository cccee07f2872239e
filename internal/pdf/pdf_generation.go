package pdf

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"

	"kediacrm/internal/models"
)

// Generator renders task reports. Handlers depend on it so tests can mock it.
type Generator interface {
	TaskReport(w io.Writer, data TaskReportData) error
}

// ReportGenerator renders reports with gofpdf.
type ReportGenerator struct {
	FontPath string // путь до TTF, например "assets/fonts/DejaVuSans.ttf"
	fontName string
}

type TaskReportData struct {
	Title       string
	GeneratedBy string
	GeneratedAt time.Time
	Stats       models.DashboardStats
	Breakdown   models.TaskBreakdown
	Tasks       []models.TaskView
}

func NewReportGenerator(fontPath string) *ReportGenerator {
	return &ReportGenerator{FontPath: fontPath, fontName: "DejaVu"}
}

type page struct {
	*gofpdf.Fpdf
	font string
	tr   func(string) string
}

// newPage uses the UTF-8 font when it is on disk and falls back to core Helvetica.
func (g *ReportGenerator) newPage() *page {
	pdf := gofpdf.New("L", "mm", "A4", "")
	p := &page{Fpdf: pdf, font: "Helvetica", tr: pdf.UnicodeTranslatorFromDescriptor("")}
	if g.FontPath != "" {
		if _, err := os.Stat(g.FontPath); err == nil {
			pdf.AddUTF8Font(g.fontName, "", g.FontPath)
			pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
			p.font = g.fontName
			p.tr = func(s string) string { return s }
		}
	}
	return p
}

func (g *ReportGenerator) TaskReport(w io.Writer, data TaskReportData) error {
	p := g.newPage()
	if data.Title == "" {
		data.Title = "Task report"
	}
	p.SetTitle(data.Title, true)
	p.SetAuthor("Kedia CRM", false)
	p.SetMargins(15, 15, 15)
	p.SetAutoPageBreak(true, 15)
	p.AliasNbPages("")
	p.SetFooterFunc(func() {
		p.SetY(-12)
		p.SetFont(p.font, "", 9)
		p.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", p.PageNo()), "", 0, "C", false, 0, "")
	})
	p.AddPage()

	// ===== Заголовок
	p.SetFont(p.font, "B", 16)
	p.CellFormat(0, 9, p.tr(data.Title), "", 1, "L", false, 0, "")
	p.SetFont(p.font, "", 10)
	sub := "Generated " + data.GeneratedAt.Format("02.01.2006 15:04")
	if data.GeneratedBy != "" {
		sub += " by " + data.GeneratedBy
	}
	p.CellFormat(0, 6, p.tr(sub), "", 1, "L", false, 0, "")
	p.hr()

	// ===== Сводка
	p.sectionTitle("Summary")
	p.kvLine("Total tasks", fmt.Sprintf("%d", data.Stats.Total))
	p.kvLine("Pending", fmt.Sprintf("%d", data.Stats.Pending))
	p.kvLine("Completed", fmt.Sprintf("%d", data.Stats.Completed))
	p.kvLine("Completion rate", fmt.Sprintf("%d%%", data.Stats.CompletionPercent))
	p.kvLine("By priority", fmt.Sprintf("High %d, Medium %d, Low %d",
		data.Breakdown.ByPriority[models.PriorityHigh],
		data.Breakdown.ByPriority[models.PriorityMedium],
		data.Breakdown.ByPriority[models.PriorityLow]))
	p.Ln(2)
	p.hr()

	// ===== Задачи
	p.sectionTitle("Tasks")
	p.taskTable(data.Tasks)

	if err := p.Output(w); err != nil {
		return fmt.Errorf("render task report: %w", err)
	}
	return nil
}

var taskColumns = []struct {
	title string
	width float64
}{
	{"Task", 85},
	{"Given by", 35},
	{"Given to", 40},
	{"Allocated", 25},
	{"Target", 25},
	{"Priority", 20},
	{"Status", 27},
}

func (p *page) taskTable(tasks []models.TaskView) {
	header := func() {
		p.SetFont(p.font, "B", 9)
		p.SetFillColor(230, 230, 230)
		for _, c := range taskColumns {
			p.CellFormat(c.width, 7, c.title, "1", 0, "L", true, 0, "")
		}
		p.Ln(-1)
		p.SetFont(p.font, "", 9)
	}
	header()
	if len(tasks) == 0 {
		p.CellFormat(0, 7, "No tasks", "1", 1, "C", false, 0, "")
		return
	}

	_, pageHeight := p.GetPageSize()
	_, _, _, bottom := p.GetMargins()
	for _, t := range tasks {
		if p.GetY()+7 > pageHeight-bottom {
			p.AddPage()
			header()
		}
		assignee := ""
		if t.GivenTo != nil {
			assignee = t.GivenTo.Name
		}
		cells := []string{
			truncate(t.Description, 60),
			truncate(t.Task.GivenBy, 22),
			truncate(assignee, 24),
			t.DateAllocation.Format("02.01.2006"),
			formatDate(t.TargetDate),
			string(t.Priority),
			string(t.Status),
		}
		for i, c := range taskColumns {
			p.CellFormat(c.width, 7, p.tr(cells[i]), "1", 0, "L", false, 0, "")
		}
		p.Ln(-1)
	}
}

func (p *page) sectionTitle(s string) {
	p.SetFont(p.font, "B", 12)
	p.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	p.SetFont(p.font, "", 10)
}

func (p *page) kvLine(key, val string) {
	p.SetFont(p.font, "B", 10)
	p.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	p.SetFont(p.font, "", 10)
	p.CellFormat(0, 6, p.tr(val), "", 1, "L", false, 0, "")
}

func (p *page) hr() {
	left, _, right, _ := p.GetMargins()
	width, _ := p.GetPageSize()
	y := p.GetY() + 1.5
	p.SetLineWidth(0.2)
	p.Line(left, y, width-right, y)
	p.SetY(y + 2)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("02.01.2006")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
