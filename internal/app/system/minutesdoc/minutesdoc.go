// Package minutesdoc renders the plain-text minutes of a finished assembly
// and its one-paragraph executive summary.
//
// Rendering is deterministic: the same input always yields the same bytes.
// Text is Brazilian Portuguese; numbers are formatted with the pt-BR locale.
package minutesdoc

import (
	"fmt"
	"strings"
	"time"

	"github.com/condovote/assemblyhub/internal/domain/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Input is everything the minutes are built from.
type Input struct {
	TenantName string
	Assembly   models.Assembly
	Items      []models.ItemVoteSummary
	Attendance models.AttendanceSummary
}

// Renderer formats minutes in a fixed time zone.
type Renderer struct {
	loc     *time.Location
	printer *message.Printer
}

// New returns a Renderer for loc. A nil loc renders in UTC.
func New(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{
		loc:     loc,
		printer: message.NewPrinter(language.BrazilianPortuguese),
	}
}

// Location returns the time zone the renderer formats in.
func (r *Renderer) Location() *time.Location {
	return r.loc
}

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// Content renders the full minutes document.
func (r *Renderer) Content(in Input) string {
	var b strings.Builder
	a := in.Assembly

	b.WriteString("ATA DA ASSEMBLEIA\n")
	if in.TenantName != "" {
		b.WriteString(strings.ToUpper(in.TenantName))
		b.WriteString("\n")
	}
	b.WriteString(a.Title)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Aos %s, reuniram-se os condôminos em assembleia", r.longDate(r.meetingDay(a)))
	if a.StartedAt != nil {
		fmt.Fprintf(&b, ", com início às %s", r.clock(*a.StartedAt))
	}
	b.WriteString(".\n")
	if desc := strings.TrimSpace(a.Description); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n")
	}

	b.WriteString("\n1. PRESENÇA E QUÓRUM\n")
	att := in.Attendance
	fmt.Fprintf(&b, "Unidades do condomínio: %s\n", r.printer.Sprint(att.TotalUnits))
	fmt.Fprintf(&b, "Unidades registradas: %s\n", r.printer.Sprint(att.TotalRegistered))
	fmt.Fprintf(&b, "Unidades presentes no encerramento: %s\n", r.printer.Sprint(att.CurrentlyPresent))
	fmt.Fprintf(&b, "Quórum: %s%%\n", r.percent(att.QuorumPercentage))
	fmt.Fprintf(&b, "Peso de votação presente: %s de %s\n",
		r.weight(att.PresentVotingWeight), r.weight(att.TotalVotingWeight))

	if len(att.Participants) > 0 {
		b.WriteString("\nLista de presença:\n")
		for _, p := range att.Participants {
			fmt.Fprintf(&b, "- Unidade %s: %s", p.UnitIdentifier, p.RepresentativeName)
			if p.IsProxy {
				b.WriteString(" (procurador)")
			}
			fmt.Fprintf(&b, ", peso %s", r.weight(p.VotingWeight))
			if p.JoinedAt != nil {
				fmt.Fprintf(&b, ", entrada %s", r.clock(*p.JoinedAt))
			}
			if p.LeftAt != nil {
				fmt.Fprintf(&b, ", saída %s", r.clock(*p.LeftAt))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n2. ORDEM DO DIA E DELIBERAÇÕES\n")
	if len(in.Items) == 0 {
		b.WriteString("Nenhum item constou da ordem do dia.\n")
	}
	for i, it := range in.Items {
		fmt.Fprintf(&b, "\n2.%d %s\n", i+1, it.Title)
		if desc := strings.TrimSpace(it.Description); desc != "" {
			b.WriteString(desc)
			b.WriteString("\n")
		}
		if it.Status != models.ItemClosed {
			b.WriteString("Item não submetido à votação.\n")
			continue
		}
		fmt.Fprintf(&b, "Tipo de quórum: %s\n", quorumLabel(it.QuorumType))
		fmt.Fprintf(&b, "Sim: %d voto(s), peso %s\n", it.YesCount, r.weight(it.WeightedYes))
		fmt.Fprintf(&b, "Não: %d voto(s), peso %s\n", it.NoCount, r.weight(it.WeightedNo))
		fmt.Fprintf(&b, "Abstenção: %d voto(s), peso %s\n", it.AbstentionCount, r.weight(it.WeightedAbst))
		fmt.Fprintf(&b, "Resultado: %s\n", it.Result)
	}

	b.WriteString("\n3. ENCERRAMENTO\n")
	b.WriteString("Nada mais havendo a tratar, a assembleia foi encerrada")
	if a.FinishedAt != nil {
		fmt.Fprintf(&b, " às %s", r.clock(*a.FinishedAt))
	}
	b.WriteString(", lavrando-se a presente ata.\n")
	return b.String()
}

// Summary renders the executive summary paragraph.
func (r *Renderer) Summary(in Input) string {
	var voted, approved int
	for _, it := range in.Items {
		if it.Status != models.ItemClosed {
			continue
		}
		voted++
		if it.Approved {
			approved++
		}
	}
	att := in.Attendance
	return fmt.Sprintf(
		"A assembleia \"%s\" realizada em %s contou com %s de %s unidades presentes (quórum de %s%%). "+
			"Foram votados %d de %d itens da pauta: %d aprovado(s) e %d reprovado(s).",
		in.Assembly.Title,
		r.shortDate(r.meetingDay(in.Assembly)),
		r.printer.Sprint(att.CurrentlyPresent),
		r.printer.Sprint(att.TotalUnits),
		r.percent(att.QuorumPercentage),
		voted, len(in.Items), approved, voted-approved,
	)
}

func (r *Renderer) meetingDay(a models.Assembly) time.Time {
	if a.StartedAt != nil {
		return *a.StartedAt
	}
	return a.ScheduledAt
}

func (r *Renderer) longDate(t time.Time) string {
	t = t.In(r.loc)
	return fmt.Sprintf("%d de %s de %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

func (r *Renderer) shortDate(t time.Time) string {
	return t.In(r.loc).Format("02/01/2006")
}

func (r *Renderer) clock(t time.Time) string {
	return t.In(r.loc).Format("15h04")
}

func (r *Renderer) percent(f float64) string {
	return r.printer.Sprint(number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

func (r *Renderer) weight(w models.Weight) string {
	return r.printer.Sprint(number.Decimal(w.InexactFloat64(), number.MaxFractionDigits(4)))
}

func quorumLabel(q string) string {
	switch q {
	case models.QuorumQualified:
		return "qualificado (2/3)"
	case models.QuorumUnanimous:
		return "unanimidade"
	default:
		return "maioria simples"
	}
}
