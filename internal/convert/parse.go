package convert

import (
	"fmt"

	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
)

// Parse tokenizes and builds a LinearModel from a canonical-form Linear
// dialect string (spec.md §4.4.1). Ids are assigned by a simple counter,
// independent of the GraphModel's own per-prefix id space.
func Parse(modelID string, typ model.ModelType, s string) (*model.LinearModel, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	l := model.NewLinearModel(modelID, typ)
	p := &parser{toks: toks, l: l}
	if _, err := p.parseSequence(""); err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, errs.Newf(errs.ParseError, "unexpected trailing tokens at token %d", p.toks[p.pos].index).WithDetail("token_index", p.toks[p.pos].index)
	}
	return l, nil
}

type parser struct {
	toks []token
	pos  int
	l    *model.LinearModel
	seq  int
}

func (p *parser) next() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

// parseSequence consumes a run of units, arrows, branches, and controls,
// starting with an edge from prevID (empty for the top-level sequence),
// returning the id of the last unit on the main line. A unit may be
// followed by any number of "(...)" branch groups — each one a sibling
// stream from that unit, not a chain off the previous branch — before an
// optional "->" continues the main line.
func (p *parser) parseSequence(prevID string) (string, error) {
	for {
		tk, ok := p.next()
		if !ok || tk.kind != tokUnit {
			break
		}
		p.pos++
		p.seq++
		u := &model.Unit{ID: fmt.Sprintf("U%d", p.seq), Name: tk.name, Kind: tk.value}
		p.l.Units = append(p.l.Units, u)
		if prevID != "" {
			p.seq++
			p.l.Streams = append(p.l.Streams, &model.Stream{
				ID: fmt.Sprintf("S%d", p.seq), FromUnit: prevID, ToUnit: u.ID,
			})
		}
		prevID = u.ID

		for {
			ctl, ok := p.next()
			if !ok || ctl.kind != tokControl {
				break
			}
			p.pos++
			p.seq++
			p.l.Controls = append(p.l.Controls, &model.Control{
				ID: fmt.Sprintf("C%d", p.seq), UnitID: u.ID, Kind: ctl.name,
			})
		}

		for {
			lp, ok := p.next()
			if !ok || lp.kind != tokLParen {
				break
			}
			p.pos++
			if _, err := p.parseSequence(prevID); err != nil {
				return "", err
			}
			rp, ok := p.next()
			if !ok || rp.kind != tokRParen {
				return "", errs.Newf(errs.ParseError, "unterminated branch starting after unit %q", u.Name)
			}
			p.pos++
		}

		arrow, ok := p.next()
		if !ok || arrow.kind != tokArrow {
			break
		}
		p.pos++
	}
	return prevID, nil
}

// Render produces the canonical-form string for l: units in topological
// flow order with a total tie-break of (source tag/name, target name),
// family-alias kind names, controls following their host unit (spec.md
// §4.4.2). aliasOf maps each unit's kind to its family alias so that
// round-tripping generalises at the family level, as required.
func Render(l *model.LinearModel, aliasOf func(kind model.Kind) (string, error)) (string, error) {
	var b []byte
	visited := make(map[string]bool, len(l.Units))
	var walk func(id string) error
	walk = func(id string) error {
		if visited[id] {
			return nil
		}
		visited[id] = true
		u, ok := l.UnitByID(id)
		if !ok {
			return nil
		}
		alias, err := aliasOf(model.Kind(u.Kind))
		if err != nil {
			return err
		}
		b = append(b, []byte(u.Name+"["+alias+"]")...)
		for _, c := range l.ControlsFor(id) {
			b = append(b, []byte("<"+c.Kind+">")...)
		}
		out := l.OutgoingStreams(id)
		switch len(out) {
		case 0:
			// leaf, nothing to append
		case 1:
			b = append(b, []byte("->")...)
			if err := walk(out[0].ToUnit); err != nil {
				return err
			}
		default:
			// Each of 2+ siblings renders as its own "(...)" branch group —
			// parseSequence accepts any number of these after a unit, each
			// starting directly with a unit token, never an arrow.
			for _, s := range out {
				b = append(b, '(')
				if err := walk(s.ToUnit); err != nil {
					return err
				}
				b = append(b, ')')
			}
		}
		return nil
	}
	for _, root := range l.RootUnits() {
		if err := walk(root.ID); err != nil {
			return "", err
		}
	}
	return string(b), nil
}
