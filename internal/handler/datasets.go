package handler

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"trendpulse-go/pkg/dataset"
	"trendpulse-go/pkg/logger"
)

// knownDatasets is the fixed set of files the pipeline produces; anything
// else under the data dir is not served.
var knownDatasets = []string{
	dataset.GlobalTrendFile,
	dataset.PercentChangeFile,
	dataset.TopPeaksFile,
	dataset.CountryFile,
	dataset.CountryTotalFile,
	dataset.CountryTop5File,
	dataset.RelatedTopFile,
	dataset.RelatedRisingFile,
	dataset.RelatedSharedFile,
}

// DatasetHandler serves the pipeline's CSV outputs read-only as JSON. The
// column names in the responses are exactly the CSV headers; the dashboard
// relies on them.
type DatasetHandler struct {
	store *dataset.Store
	log   *logger.Logger
}

func NewDatasetHandler(store *dataset.Store) *DatasetHandler {
	return &DatasetHandler{
		store: store,
		log:   logger.GetLogger().WithField("component", "dataset_handler"),
	}
}

func (h *DatasetHandler) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/api/datasets", h.ListDatasets)
	app.Get("/api/datasets/:name", h.GetDataset)
}

func (h *DatasetHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

type datasetInfo struct {
	Name        string `json:"name"`
	Available   bool   `json:"available"`
	LastUpdated string `json:"last_updated,omitempty"`
}

func (h *DatasetHandler) ListDatasets(c *fiber.Ctx) error {
	infos := make([]datasetInfo, 0, len(knownDatasets))
	for _, name := range knownDatasets {
		info := datasetInfo{Name: name}
		if mtime, err := h.store.LastModified(name); err == nil {
			info.Available = true
			info.LastUpdated = mtime.Format(time.RFC3339)
		}
		infos = append(infos, info)
	}
	return c.JSON(fiber.Map{"datasets": infos})
}

func (h *DatasetHandler) GetDataset(c *fiber.Ctx) error {
	name := c.Params("name")
	if !isKnownDataset(name) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown dataset: " + name,
		})
	}

	header, records, err := h.store.ReadRecords(name)
	if err != nil {
		if os.IsNotExist(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "dataset not yet generated: " + name,
			})
		}
		h.log.WithError(err).WithField("dataset", name).Error("Failed to read dataset")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read dataset",
		})
	}

	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}

	return c.JSON(fiber.Map{
		"name":    name,
		"columns": header,
		"rows":    rows,
	})
}

func isKnownDataset(name string) bool {
	for _, known := range knownDatasets {
		if name == known {
			return true
		}
	}
	return false
}
