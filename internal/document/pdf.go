package document

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	"github.com/dsillex/formfill/internal/models"
	"github.com/dsillex/formfill/internal/resolve"
	"github.com/dsillex/formfill/internal/transform"
)

// PDFAdapter analyzes and fills AcroForm fields using pdfcpu's low-level
// context, so unrelated controls, appearances, and content streams survive a
// fill untouched.
type PDFAdapter struct {
	logger   *zap.Logger
	resolver *resolve.Resolver
}

// NewPDFAdapter returns a PDF adapter. logger may be nil.
func NewPDFAdapter(logger *zap.Logger) *PDFAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFAdapter{logger: logger, resolver: resolve.New(logger)}
}

func (a *PDFAdapter) Type() models.DocumentType { return models.DocumentPDF }

// CanProcess checks the %PDF signature only.
func (a *PDFAdapter) CanProcess(content []byte) bool {
	return bytes.HasPrefix(content, pdfMagic)
}

func (a *PDFAdapter) readContext(content []byte) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(content), conf)
	if err != nil {
		return nil, fmt.Errorf("read PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("resolve page count: %w", err)
	}
	return ctx, nil
}

// AnalyzeDocument enumerates the document's AcroForm fields and maps each
// control to a normalized DocumentField.
func (a *PDFAdapter) AnalyzeDocument(content []byte, _ *models.AnalyzeOptions) (*models.AnalysisResult, error) {
	ctx, err := a.readContext(content)
	if err != nil {
		return nil, err
	}

	terminal, _, err := a.collectFields(ctx)
	if err != nil {
		return nil, err
	}

	fields := make([]models.DocumentField, 0, len(terminal))
	for _, tf := range terminal {
		field, ok := a.buildField(ctx, tf)
		if !ok {
			continue
		}
		fields = append(fields, field)
	}

	return &models.AnalysisResult{
		Fields: fields,
		Pages:  ctx.PageCount,
		Metadata: map[string]any{
			"hasAcroForm": len(terminal) > 0,
			"fieldCount":  len(fields),
		},
	}, nil
}

// terminalField is one leaf AcroForm field: its fully-qualified name and its
// dictionary.
type terminalField struct {
	name string
	dict types.Dict
}

// collectFields walks Catalog → AcroForm → Fields, descending into children
// that are themselves named fields (kids carrying a T entry), and returns the
// terminal fields plus the AcroForm dictionary.
func (a *PDFAdapter) collectFields(ctx *model.Context) ([]terminalField, types.Dict, error) {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog: %w", err)
	}
	acroObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, nil, nil
	}
	acroDict, err := ctx.DereferenceDict(acroObj)
	if err != nil || acroDict == nil {
		return nil, nil, nil
	}
	fieldsObj, found := acroDict.Find("Fields")
	if !found {
		return nil, acroDict, nil
	}
	arr, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, acroDict, fmt.Errorf("dereference field list: %w", err)
	}

	var terminal []terminalField
	a.descend(ctx, arr, "", &terminal)
	return terminal, acroDict, nil
}

func (a *PDFAdapter) descend(ctx *model.Context, fields types.Array, prefix string, out *[]terminalField) {
	for i, ref := range fields {
		d, err := ctx.DereferenceDict(ref)
		if err != nil || d == nil {
			continue
		}
		name := a.fieldName(ctx, d)
		if name == "" {
			name = fmt.Sprintf("field_%d", i)
		}
		if prefix != "" {
			name = prefix + "." + name
		}

		// Kids that carry their own T entry are child fields, not widget
		// annotations; recurse into them instead of emitting the parent.
		if kidsObj, found := d.Find("Kids"); found {
			if kids, err := ctx.DereferenceArray(kidsObj); err == nil && a.hasNamedKid(ctx, kids) {
				a.descend(ctx, kids, name, out)
				continue
			}
		}
		*out = append(*out, terminalField{name: name, dict: d})
	}
}

func (a *PDFAdapter) hasNamedKid(ctx *model.Context, kids types.Array) bool {
	for _, ref := range kids {
		if d, err := ctx.DereferenceDict(ref); err == nil && d != nil {
			if _, found := d.Find("T"); found {
				return true
			}
		}
	}
	return false
}

func (a *PDFAdapter) fieldName(ctx *model.Context, d types.Dict) string {
	obj, found := d.Find("T")
	if !found {
		return ""
	}
	name, err := ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return name
}

// buildField maps one AcroForm control to a DocumentField by its widget kind.
func (a *PDFAdapter) buildField(ctx *model.Context, tf terminalField) (models.DocumentField, bool) {
	ft := a.fieldFormType(ctx, tf.dict)

	field := models.DocumentField{
		ID:       tf.name,
		Name:     tf.name,
		Required: a.fieldRequired(ctx, tf.dict, tf.name),
	}

	switch ft {
	case "Tx":
		field.Type = models.FieldText
		if inferDateField(tf.name) {
			field.Type = models.FieldDate
		}
		if v, ok := a.stringValue(ctx, tf.dict, "V"); ok {
			field.Value = v
		}
	case "Btn":
		flags := a.fieldFlags(ctx, tf.dict)
		if flags&(1<<16) != 0 { // pushbutton, nothing to fill
			return models.DocumentField{}, false
		}
		if flags&(1<<15) != 0 { // radio group
			field.Type = models.FieldRadio
			field.Options = a.discoverOptions(ctx, tf.dict)
			if v, ok := a.nameValue(ctx, tf.dict, "V"); ok && v != "Off" {
				field.Value = v
			}
		} else {
			field.Type = models.FieldCheckbox
			if v, ok := a.nameValue(ctx, tf.dict, "V"); ok {
				field.Value = v != "Off"
			} else {
				field.Value = false
			}
		}
	case "Ch":
		field.Type = models.FieldDropdown
		field.Options = a.discoverOptions(ctx, tf.dict)
		if v, ok := a.stringValue(ctx, tf.dict, "V"); ok {
			field.Value = v
		}
	default:
		// Signatures and unknown kinds are not fillable.
		return models.DocumentField{}, false
	}

	return field, true
}

// fieldFormType resolves the FT entry, consulting Parent for inherited types.
func (a *PDFAdapter) fieldFormType(ctx *model.Context, d types.Dict) string {
	if obj, found := d.Find("FT"); found {
		if name, err := ctx.DereferenceName(obj, model.V10, nil); err == nil {
			return string(name)
		}
	}
	if parentObj, found := d.Find("Parent"); found {
		if parent, err := ctx.DereferenceDict(parentObj); err == nil && parent != nil {
			return a.fieldFormType(ctx, parent)
		}
	}
	return ""
}

func (a *PDFAdapter) fieldFlags(ctx *model.Context, d types.Dict) types.Integer {
	obj, found := d.Find("Ff")
	if !found {
		return 0
	}
	flags, err := ctx.DereferenceInteger(obj)
	if err != nil || flags == nil {
		return 0
	}
	return *flags
}

// fieldRequired combines the structural Required flag (bit 2) with the
// keyword heuristic on the control name.
func (a *PDFAdapter) fieldRequired(ctx *model.Context, d types.Dict, name string) bool {
	if a.fieldFlags(ctx, d)&2 != 0 {
		return true
	}
	return inferRequired(name)
}

func (a *PDFAdapter) stringValue(ctx *model.Context, d types.Dict, key string) (string, bool) {
	obj, found := d.Find(key)
	if !found {
		return "", false
	}
	s, err := ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil)
	if err != nil {
		return "", false
	}
	return s, true
}

func (a *PDFAdapter) nameValue(ctx *model.Context, d types.Dict, key string) (string, bool) {
	obj, found := d.Find(key)
	if !found {
		return "", false
	}
	name, err := ctx.DereferenceName(obj, model.V10, nil)
	if err != nil {
		return "", false
	}
	return string(name), true
}

// discoverOptions tries three strategies in sequence and degrades to no
// options rather than failing: the field's Opt array, then the appearance
// state names defined on kid widgets, then the kids' current AS values.
func (a *PDFAdapter) discoverOptions(ctx *model.Context, d types.Dict) []string {
	if opts := a.optionsFromOpt(ctx, d); len(opts) > 0 {
		return opts
	}
	if opts := a.optionsFromAppearances(ctx, d); len(opts) > 0 {
		return opts
	}
	return a.optionsFromAppearanceStates(ctx, d)
}

func (a *PDFAdapter) optionsFromOpt(ctx *model.Context, d types.Dict) []string {
	obj, found := d.Find("Opt")
	if !found {
		return nil
	}
	arr, err := ctx.DereferenceArray(obj)
	if err != nil {
		return nil
	}
	var opts []string
	for _, o := range arr {
		if s, err := ctx.DereferenceStringOrHexLiteral(o, model.V10, nil); err == nil {
			opts = append(opts, s)
			continue
		}
		// Entries may be [exportValue, displayValue] pairs.
		if pair, err := ctx.DereferenceArray(o); err == nil && len(pair) >= 2 {
			if s, err := ctx.DereferenceStringOrHexLiteral(pair[1], model.V10, nil); err == nil {
				opts = append(opts, s)
			}
		}
	}
	return opts
}

func (a *PDFAdapter) optionsFromAppearances(ctx *model.Context, d types.Dict) []string {
	var opts []string
	seen := map[string]bool{}
	for _, kid := range a.widgetKids(ctx, d) {
		apObj, found := kid.Find("AP")
		if !found {
			continue
		}
		apDict, err := ctx.DereferenceDict(apObj)
		if err != nil || apDict == nil {
			continue
		}
		nObj, found := apDict.Find("N")
		if !found {
			continue
		}
		nDict, err := ctx.DereferenceDict(nObj)
		if err != nil || nDict == nil {
			continue
		}
		for state := range nDict {
			if state != "Off" && !seen[state] {
				seen[state] = true
				opts = append(opts, state)
			}
		}
	}
	return opts
}

func (a *PDFAdapter) optionsFromAppearanceStates(ctx *model.Context, d types.Dict) []string {
	var opts []string
	seen := map[string]bool{}
	for _, kid := range a.widgetKids(ctx, d) {
		if as, ok := a.nameValue(ctx, kid, "AS"); ok && as != "Off" && !seen[as] {
			seen[as] = true
			opts = append(opts, as)
		}
	}
	return opts
}

// widgetKids returns the kid widget dictionaries of d, or d itself when the
// field and widget annotation are merged into one dictionary.
func (a *PDFAdapter) widgetKids(ctx *model.Context, d types.Dict) []types.Dict {
	kidsObj, found := d.Find("Kids")
	if !found {
		return []types.Dict{d}
	}
	arr, err := ctx.DereferenceArray(kidsObj)
	if err != nil {
		return []types.Dict{d}
	}
	var kids []types.Dict
	for _, ref := range arr {
		if kid, err := ctx.DereferenceDict(ref); err == nil && kid != nil {
			kids = append(kids, kid)
		}
	}
	if len(kids) == 0 {
		return []types.Dict{d}
	}
	return kids
}

// FillDocument resolves each mapping and writes the value into the matching
// AcroForm control. A mapping without a matching control or a per-field write
// failure becomes a warning; the fill continues with the remaining mappings.
func (a *PDFAdapter) FillDocument(content []byte, mappings []models.FieldMapping, data *models.DataContext, outputPath string, _ *models.SheetFillOptions) *models.FillResult {
	ctx, err := a.readContext(content)
	if err != nil {
		return failResult(err)
	}

	terminal, acroDict, err := a.collectFields(ctx)
	if err != nil {
		return failResult(err)
	}
	index := make(map[string]types.Dict, len(terminal))
	for _, tf := range terminal {
		index[tf.name] = tf.dict
	}

	var warnings []string
	for i := range mappings {
		m := &mappings[i]
		d, ok := index[m.DocumentFieldID]
		if !ok {
			warnings = append(warnings, missingFieldWarning(m))
			continue
		}
		value := a.resolver.Resolve(m, data)
		if err := a.writeField(ctx, d, m, value); err != nil {
			warnings = append(warnings, fmt.Sprintf("Field %q could not be filled: %v", m.DocumentFieldID, err))
		}
	}

	if acroDict != nil {
		// Viewers regenerate widget appearance streams for the new values.
		acroDict["NeedAppearances"] = types.Boolean(true)
	}

	out, err := createOutput(outputPath)
	if err != nil {
		return failResult(err)
	}
	defer out.Close()
	if err := api.WriteContext(ctx, out); err != nil {
		return failResult(fmt.Errorf("write PDF: %w", err))
	}

	return &models.FillResult{Success: true, OutputPath: outputPath, Warnings: warnings}
}

// writeField sets the control's value keyed by the mapping's declared field
// type: text sets a string, checkbox checks by truthiness, radio and
// dropdown select by exact match. Selecting a value absent from a radio
// group's defined states leaves every widget off, which is this adapter's
// behavior for out-of-set values.
func (a *PDFAdapter) writeField(ctx *model.Context, d types.Dict, m *models.FieldMapping, value any) error {
	switch m.DocumentFieldType {
	case models.FieldCheckbox:
		return a.writeCheckbox(ctx, d, transform.CoerceBool(value))
	case models.FieldRadio:
		return a.writeRadio(ctx, d, transform.Stringify(value))
	case models.FieldDropdown:
		return a.writeTextual(d, transform.Stringify(value))
	default: // text, date
		return a.writeTextual(d, transform.Stringify(value))
	}
}

func (a *PDFAdapter) writeTextual(d types.Dict, s string) error {
	escaped, err := types.EscapeUTF16String(s)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	d["V"] = types.StringLiteral(*escaped)
	delete(d, "I") // stale selection index on choice fields
	return nil
}

func (a *PDFAdapter) writeCheckbox(ctx *model.Context, d types.Dict, checked bool) error {
	state := "Off"
	if checked {
		state = a.onState(ctx, d)
	}
	d["V"] = types.Name(state)
	for _, kid := range a.widgetKids(ctx, d) {
		kid["AS"] = types.Name(state)
	}
	return nil
}

// onState finds the checkbox's "on" appearance name; most documents use Yes
// but any name is legal.
func (a *PDFAdapter) onState(ctx *model.Context, d types.Dict) string {
	for _, opt := range a.optionsFromAppearances(ctx, d) {
		return opt
	}
	return "Yes"
}

func (a *PDFAdapter) writeRadio(ctx *model.Context, d types.Dict, value string) error {
	d["V"] = types.Name(value)
	for _, kid := range a.widgetKids(ctx, d) {
		state := "Off"
		for _, defined := range a.optionsFromAppearances(ctx, kid) {
			if defined == value {
				state = value
				break
			}
		}
		kid["AS"] = types.Name(state)
	}
	return nil
}

// ExtractText returns the document's plain text, page by page. Read-only.
func (a *PDFAdapter) ExtractText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		buf.WriteString(text)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}
