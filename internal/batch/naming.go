package batch

// Artifact names are keyed by the stable page identifier, so structural edits
// never rename files. Ordering lives only in the tree.

// PageImageName returns the working image name of a page.
func PageImageName(batchID, pageID string) string {
	return batchID + "_" + pageID + ".png"
}

// ThumbnailName returns the thumbnail image name of a page.
func ThumbnailName(batchID, pageID string) string {
	return batchID + "_" + pageID + "_thumb.png"
}

// DisplayName returns the display image name of a page.
func DisplayName(batchID, pageID string) string {
	return batchID + "_" + pageID + "_display.png"
}

// HocrHTMLName returns the name of the raw OCR engine output for a page.
func HocrHTMLName(batchID, pageID string) string {
	return batchID + "_" + pageID + ".html"
}

// HocrXMLName returns the name of the structured HocrPages document for a page.
func HocrXMLName(batchID, pageID string) string {
	return batchID + "_" + pageID + "_HOCR.xml"
}
