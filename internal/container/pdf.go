package container

import (
	"bytes"
	"time"

	"github.com/go-pdf/fpdf"

	"docfit-go/internal/domain"
)

// buildEpoch pins the document dates so identical input builds identical bytes.
var buildEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

const imageName = "raster"

// Build writes a one-page PDF showing the JPEG stream at l. The JPEG is
// embedded as is, without re-encoding.
func Build(jpeg []byte, l Layout) ([]byte, error) {
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: l.Page.Width, Ht: l.Page.Height},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCompression(true)
	doc.SetCreator("docfit", false)
	doc.SetCreationDate(buildEpoch)
	doc.AddPage()

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	doc.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(jpeg))
	doc.ImageOptions(imageName, l.Rect.X, l.Rect.Y, l.Rect.Width, l.Rect.Height, false, opts, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, &domain.Error{Kind: domain.KindInternalDecode, Op: "assemble", Detail: "pdf output", Err: err}
	}
	return buf.Bytes(), nil
}
