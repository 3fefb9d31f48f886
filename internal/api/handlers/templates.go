package handlers

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/glucorisk/backend/pkg/logger"
)

const timeLayout = "2006-01-02 15:04:05"

var funcs = template.FuncMap{
	"percent": func(p float64) string {
		return fmt.Sprintf("%.1f%%", p*100)
	},
}

var historyTemplate = template.Must(template.New("history").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Riwayat Prediksi Diabetes</title>
    <link rel="stylesheet" href="/static/style.css">
</head>
<body>
    <div class="container">
        <h1>Riwayat Prediksi Diabetes</h1>
        <a href="/" class="home-btn">&larr; Kembali ke Prediksi</a>
        <br><br>
{{- if . }}
        <table id="history">
            <tr>
                <th>ID</th><th>Usia</th><th>Jenis Kelamin</th><th>Hasil</th>
                <th>Probabilitas</th><th>Model</th><th>Waktu Prediksi</th><th>Aksi</th>
            </tr>
{{- range . }}
            <tr class="{{ if eq .Prediction 1 }}risk{{ else }}normal{{ end }}" data-id="{{ .ID }}">
                <td>{{ .ID }}</td>
                <td>{{ .Age }}</td>
                <td>{{ .Gender }}</td>
                <td><strong>{{ .Diagnosis }}</strong></td>
                <td>{{ percent .Probability }}</td>
                <td>{{ .ModelUsed }}</td>
                <td>{{ .CreatedAt }}</td>
                <td><button class="delete-btn" data-id="{{ .ID }}" onclick="hapusPrediksi(this.dataset.id)">Hapus</button></td>
            </tr>
{{- end }}
        </table>
        <script>
            async function hapusPrediksi(id) {
                if (!confirm('Yakin ingin menghapus data ini?')) {
                    return;
                }
                try {
                    const response = await fetch('/hapus/' + id, { method: 'DELETE' });
                    const result = await response.json();
                    if (result.success) {
                        alert('Data berhasil dihapus');
                        location.reload();
                    } else {
                        alert('Error: ' + result.error);
                    }
                } catch (error) {
                    alert('Error: ' + error.message);
                }
            }
        </script>
{{- else }}
        <p class="empty">Belum ada data prediksi.</p>
{{- end }}
    </div>
</body>
</html>
`))

var statisticsTemplate = template.Must(template.New("statistics").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Statistik Prediksi Diabetes</title>
    <link rel="stylesheet" href="/static/style.css">
</head>
<body>
    <div class="container">
        <h1>Statistik Prediksi Diabetes</h1>
        <a href="/" class="home-btn">&larr; Kembali ke Prediksi</a>
        <br><br>
        <div class="stat-card" id="summary">
            <h3>Total Prediksi: <span id="total">{{ .Total }}</span></h3>
            <p>Berisiko Diabetes: <span id="positive">{{ .Positive }}</span></p>
            <p>Normal: <span id="normal">{{ .Normal }}</span></p>
            <p>Rasio: <span id="ratio">{{ .RatioText }}</span> berisiko diabetes</p>
        </div>
        <div class="stat-card" id="models">
            <h3>Penggunaan Model:</h3>
{{- range .ModelUsage }}
            <p class="model">{{ .ModelUsed }}: {{ .Count }} prediksi</p>
{{- end }}
        </div>
    </div>
</body>
</html>
`))

func render(c *fiber.Ctx, tmpl *template.Template, data interface{}) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		logger.Error("Failed to render page", zap.String("template", tmpl.Name()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("Error: failed to render page")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}
