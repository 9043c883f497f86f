// Package validation binds records from wwPDB structure-validation reports.
package validation

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var ErrMissingAttribute = errors.New("required attribute missing")

// AttributeError names the clash attribute that was missing or malformed.
type AttributeError struct {
	Attr string
	Err  error
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("clash attribute %q: %s", e.Attr, e.Err)
}

func (e *AttributeError) Unwrap() error {
	return e.Err
}

// Clash is a steric clash between an atom and a neighbour, as listed in a
// validation report:
//
//	<clash atom="CB" cid="12" clashmag="0.48" dist="2.92"/>
type Clash struct {
	XMLName  xml.Name `xml:"clash" json:"-" yaml:"-"`
	Atom     string   `xml:"atom,attr" json:"atom" yaml:"atom"`
	Cid      int64    `xml:"cid,attr" json:"cid" yaml:"cid"`
	Clashmag float64  `xml:"clashmag,attr" json:"clashmag" yaml:"clashmag"`
	Dist     float64  `xml:"dist,attr" json:"dist" yaml:"dist"`
}

// UnmarshalXML decodes the attributes of a clash element. All four are required.
func (c *Clash) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	seen := make(map[string]bool, 4)

	for _, attr := range start.Attr {
		value := strings.TrimSpace(attr.Value)
		var err error
		switch attr.Name.Local {
		case "atom":
			// NCName values are whitespace-collapsed.
			c.Atom = strings.Join(strings.Fields(attr.Value), " ")
		case "cid":
			c.Cid, err = strconv.ParseInt(value, 10, 64)
		case "clashmag":
			c.Clashmag, err = strconv.ParseFloat(value, 64)
		case "dist":
			c.Dist, err = strconv.ParseFloat(value, 64)
		default:
			continue
		}
		if err != nil {
			return &AttributeError{Attr: attr.Name.Local, Err: err}
		}
		seen[attr.Name.Local] = true
	}

	for _, name := range []string{"atom", "cid", "clashmag", "dist"} {
		if !seen[name] {
			return &AttributeError{Attr: name, Err: ErrMissingAttribute}
		}
	}

	c.XMLName = start.Name
	return d.Skip()
}

// DecodeClash decodes a single clash element.
func DecodeClash(r io.Reader) (*Clash, error) {
	var c Clash
	if err := xml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode clash: %w", err)
	}
	if c.XMLName.Local != "clash" {
		return nil, fmt.Errorf("expected <clash>, got <%s>", c.XMLName.Local)
	}
	return &c, nil
}

// ReadClashes returns every clash element in a report, in document order,
// regardless of how deeply it is nested.
func ReadClashes(r io.Reader) ([]*Clash, error) {
	decoder := xml.NewDecoder(r)
	clashes := make([]*Clash, 0)

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return clashes, fmt.Errorf("failed to read validation report: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "clash" {
			continue
		}

		var c Clash
		if err := decoder.DecodeElement(&c, &start); err != nil {
			return clashes, fmt.Errorf("clash %d: %w", len(clashes)+1, err)
		}
		clashes = append(clashes, &c)
	}

	return clashes, nil
}
