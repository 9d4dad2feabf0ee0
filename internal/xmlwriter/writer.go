// =============================================================================
// VDA Delivery Call-Off Decoder - XML Writer Module
// =============================================================================
//
// This module renders a decoded delivery call-off as XML.
//
// XML STRUCTURE:
//
//   <lieferabruf source="acme_0815.vda">      <!-- Root element -->
//     <kunde>KUNDE0001</kunde>                <!-- Header fields -->
//     <lieferant>LIEF00042</lieferant>
//     <werk>W01</werk>
//     ...
//     <abrufe>
//       <abruf date="240201" amount="100"/>   <!-- One per call-off -->
//       <abruf date="240202" amount="200"/>
//     </abrufe>
//     <additionalSchedules>                   <!-- Only for multi-schedule -->
//       <schedule line="4">...</schedule>
//     </additionalSchedules>
//   </lieferabruf>
//
// The element names come from the struct tags of types.Vda. The root element
// name and its attributes are configurable.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"

	"github.com/ginjaninja78/vda-lieferabruf/internal/types"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration writes <?xml ...?> in front of the document.
	// Default: true
	IncludeXMLDeclaration bool

	// RootElement is the name of the root element.
	// Default: "lieferabruf"
	RootElement string

	// RootAttributes are additional attributes for the root element, written
	// in name order.
	// Example: {"xmlns": "urn:example:vda4905"}
	RootAttributes map[string]string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		RootElement:           "lieferabruf",
		RootAttributes:        make(map[string]string),
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// document wraps the aggregate with a configurable root element.
// AdditionalSchedules shadows the field of types.Vda so that the wrapper
// element is left out entirely for single-schedule documents.
type document struct {
	XMLName    xml.Name
	Attributes []xml.Attr `xml:",attr"`
	*types.Vda
	AdditionalSchedules *scheduleList `xml:"additionalSchedules,omitempty"`
}

// scheduleList is the <additionalSchedules> element.
type scheduleList struct {
	Schedules []types.Schedule `xml:"schedule"`
}

// Generate renders the document with the default options.
func Generate(v *types.Vda) ([]byte, error) {
	return GenerateWithOptions(v, DefaultGenerateOptions())
}

// GenerateWithOptions renders the document with custom options.
func GenerateWithOptions(v *types.Vda, options GenerateOptions) ([]byte, error) {
	var buffer bytes.Buffer
	if err := Write(&buffer, v, options); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Write renders the document to w.
func Write(w io.Writer, v *types.Vda, options GenerateOptions) error {
	if v == nil {
		return fmt.Errorf("no document to write")
	}
	if options.RootElement == "" {
		options.RootElement = "lieferabruf"
	}

	if options.IncludeXMLDeclaration {
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return fmt.Errorf("failed to write XML declaration: %w", err)
		}
	}

	doc := document{
		XMLName:    xml.Name{Local: options.RootElement},
		Attributes: rootAttributes(options.RootAttributes),
		Vda:        v,
	}
	if v.MultiSchedule() {
		doc.AdditionalSchedules = &scheduleList{Schedules: v.AdditionalSchedules}
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", options.Indent)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal XML: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("failed to write XML: %w", err)
	}
	return nil
}

// rootAttributes converts the attribute map into name-ordered attributes.
func rootAttributes(attrs map[string]string) []xml.Attr {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]xml.Attr, 0, len(names))
	for _, name := range names {
		out = append(out, xml.Attr{Name: xml.Name{Local: name}, Value: attrs[name]})
	}
	return out
}

// =============================================================================
// XSD GENERATION
// =============================================================================

// GenerateXSD returns an XSD describing the documents written by Generate
// with the given root element name.
func GenerateXSD(rootElement string) []byte {
	if rootElement == "" {
		rootElement = "lieferabruf"
	}

	var buffer bytes.Buffer

	buffer.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
`)

	fmt.Fprintf(&buffer, `  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence>
`, rootElement)

	writeXSDElement(&buffer, "kunde", "xs:string", 9, 1)
	writeXSDElement(&buffer, "lieferant", "xs:string", 9, 1)
	writeXSDElement(&buffer, "werk", "xs:string", 3, 1)
	writeXSDElement(&buffer, "abladestelle", "xs:string", 5, 1)
	writeXSDElement(&buffer, "lieferabrufAlt", "xs:nonNegativeInteger", 0, 1)
	writeXSDElement(&buffer, "lieferabrufNeu", "xs:nonNegativeInteger", 0, 1)
	writeXSDElement(&buffer, "sachnummer", "xs:string", 22, 1)
	writeXSDElement(&buffer, "mengeneinheit", "xs:string", 2, 1)
	writeXSDElement(&buffer, "rueckstandmenge", "xs:string", 0, 0)
	writeXSDElement(&buffer, "sofortbedarf", "xs:string", 0, 0)

	buffer.WriteString(`        <xs:element name="abrufe" minOccurs="0">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="abruf" minOccurs="0" maxOccurs="unbounded">
                <xs:complexType>
                  <xs:attribute name="date" type="xs:nonNegativeInteger" use="required"/>
                  <xs:attribute name="amount" type="xs:nonNegativeInteger" use="required"/>
                </xs:complexType>
              </xs:element>
            </xs:sequence>
          </xs:complexType>
        </xs:element>
        <xs:element name="additionalSchedules" minOccurs="0">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="schedule" maxOccurs="unbounded">
                <xs:complexType>
                  <xs:sequence>
                    <xs:element name="werk" type="xs:string"/>
                    <xs:element name="lieferabrufNeu" type="xs:nonNegativeInteger"/>
                    <xs:element name="lieferabrufAlt" type="xs:nonNegativeInteger"/>
                    <xs:element name="sachnummer" type="xs:string"/>
                    <xs:element name="abladestelle" type="xs:string"/>
                    <xs:element name="mengeneinheit" type="xs:string"/>
                  </xs:sequence>
                  <xs:attribute name="line" type="xs:positiveInteger" use="required"/>
                </xs:complexType>
              </xs:element>
            </xs:sequence>
          </xs:complexType>
        </xs:element>
      </xs:sequence>
      <xs:anyAttribute processContents="lax"/>
    </xs:complexType>
  </xs:element>
</xs:schema>
`)

	return buffer.Bytes()
}

// writeXSDElement writes a simple element definition, restricted to
// maxLength characters when maxLength > 0.
func writeXSDElement(buffer *bytes.Buffer, name, xsdType string, maxLength, minOccurs int) {
	const indent = "        "

	if maxLength > 0 {
		fmt.Fprintf(buffer, `%s<xs:element name="%s" minOccurs="%d">
%s  <xs:simpleType>
%s    <xs:restriction base="%s">
%s      <xs:maxLength value="%d"/>
%s    </xs:restriction>
%s  </xs:simpleType>
%s</xs:element>
`, indent, name, minOccurs,
			indent, indent, xsdType,
			indent, maxLength,
			indent, indent, indent)
		return
	}

	fmt.Fprintf(buffer, "%s<xs:element name=\"%s\" type=\"%s\" minOccurs=\"%d\"/>\n",
		indent, name, xsdType, minOccurs)
}
