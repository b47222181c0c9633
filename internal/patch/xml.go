package patch

import (
	"fmt"

	"github.com/beevik/etree"
)

// ConfigXMLFile is the manifest file name at the project root.
const ConfigXMLFile = "config.xml"

// xmlDeclaration is the processing instruction written at the top of
// config.xml.
const xmlDeclaration = `version="1.0" encoding="UTF-8"`

// Description returns the generated description for appName, used in both
// config.xml and package.json.
func Description(appName string) string {
	return "Wrapped version of " + appName
}

// PatchConfigXML sets the widget identity in the config.xml at path.
//
// The root element's id and version attributes are set; the first name
// and description children in the root's namespace get new text if they
// exist. Comments, other elements, namespace declarations and attribute
// order are kept as they were.
func PatchConfigXML(path, appName, appID, version string) error {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true

	if err := doc.ReadFromFile(path); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := applyIdentity(doc, appName, appID, version); err != nil {
		return fmt.Errorf("failed to update %s: %w", path, err)
	}

	if err := doc.WriteToFile(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// applyIdentity mutates an already parsed config.xml document.
func applyIdentity(doc *etree.Document, appName, appID, version string) error {
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("document has no root element")
	}

	// CreateAttr replaces an existing attribute in place.
	root.CreateAttr("id", appID)
	root.CreateAttr("version", version)

	if name := findChild(root, "name"); name != nil {
		name.SetText(appName)
	}
	if desc := findChild(root, "description"); desc != nil {
		desc.SetText(Description(appName))
	}

	ensureDeclaration(doc)
	return nil
}

// findChild returns the first direct child of parent named tag that lives
// in the same namespace as parent, or nil.
func findChild(parent *etree.Element, tag string) *etree.Element {
	ns := parent.NamespaceURI()
	for _, child := range parent.ChildElements() {
		if child.Tag == tag && child.NamespaceURI() == ns {
			return child
		}
	}
	return nil
}

// ensureDeclaration makes the document start with the UTF-8 XML
// declaration, rewriting an existing one or inserting a new one.
func ensureDeclaration(doc *etree.Document) {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			pi.Inst = xmlDeclaration
			return
		}
	}
	doc.InsertChildAt(0, etree.NewText("\n"))
	doc.InsertChildAt(0, &etree.ProcInst{Target: "xml", Inst: xmlDeclaration})
}

// readConfigXML extracts the identity fields from a config.xml file.
func readConfigXML(path string) (id, version, name, description string, err error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return "", "", "", "", fmt.Errorf("failed to parse %s: %w", path, err)
	}

	root := doc.Root()
	if root == nil {
		return "", "", "", "", fmt.Errorf("failed to parse %s: document has no root element", path)
	}

	id = root.SelectAttrValue("id", "")
	version = root.SelectAttrValue("version", "")
	if el := findChild(root, "name"); el != nil {
		name = el.Text()
	}
	if el := findChild(root, "description"); el != nil {
		description = el.Text()
	}
	return id, version, name, description, nil
}
