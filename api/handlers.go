package api

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"hdb-resale/models"
	"hdb-resale/services"
	"hdb-resale/storage"
)

type datasetResponse struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
	Records  int       `json:"records"`
	Columns  []string  `json:"columns"`
	HasGeo   bool      `json:"has_geo"`
}

type resultsResponse struct {
	DatasetID string                `json:"dataset_id"`
	Criteria  models.FilterCriteria `json:"criteria"`
	Count     int                   `json:"count"`
	Records   []map[string]string   `json:"records"`
	models.FilteredResult
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) datasetHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ds, err := s.source.Load(r.Context())
	if err != nil {
		s.unavailableResponse(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, describe(ds))
}

func (s *Server) optionsHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ds, err := s.source.Load(r.Context())
	if err != nil {
		s.unavailableResponse(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, services.Options(ds))
}

func (s *Server) resultsHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ds, criteria, ok := s.prepare(w, r)
	if !ok {
		return
	}

	result := s.pipeline.Apply(ds, criteria)
	columns := storage.ExportColumns(ds)
	records := make([]map[string]string, 0, len(result.Subset))
	for _, t := range result.Subset {
		row := make(map[string]string, len(columns))
		for _, col := range columns {
			row[col] = t.Field(col)
		}
		records = append(records, row)
	}

	s.sendJSON(w, http.StatusOK, resultsResponse{
		DatasetID:      ds.ID.String(),
		Criteria:       criteria,
		Count:          len(result.Subset),
		Records:        records,
		FilteredResult: result,
	})
}

func (s *Server) resultsCSVHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ds, criteria, ok := s.prepare(w, r)
	if !ok {
		return
	}

	result := s.pipeline.Apply(ds, criteria)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="resale-filtered.csv"`)
	cw, err := storage.NewCSVWriter(w, storage.ExportColumns(ds))
	if err != nil {
		s.serverErrorResponse(w, err)
		return
	}
	if err := cw.WriteResult(result); err != nil {
		// headers are already sent
		s.logger.Error("[api] csv export aborted: %v", err)
	}
}

func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ds, err := s.source.Reload(r.Context())
	if err != nil {
		s.unavailableResponse(w, err)
		return
	}
	s.logger.Info("[api] Dataset reloaded: %s (%d records)", ds.ID, ds.Len())
	s.sendJSON(w, http.StatusOK, describe(ds))
}

// prepare loads the dataset and resolves the request's criteria against it.
func (s *Server) prepare(w http.ResponseWriter, r *http.Request) (*models.Dataset, models.FilterCriteria, bool) {
	req, err := criteriaFromRequest(r)
	if err != nil {
		s.badRequestResponse(w, err)
		return nil, models.FilterCriteria{}, false
	}
	ds, err := s.source.Load(r.Context())
	if err != nil {
		s.unavailableResponse(w, err)
		return nil, models.FilterCriteria{}, false
	}
	return ds, req.resolve(services.Options(ds)), true
}

func describe(ds *models.Dataset) datasetResponse {
	return datasetResponse{
		ID:       ds.ID.String(),
		Source:   ds.Source,
		LoadedAt: ds.LoadedAt,
		Records:  ds.Len(),
		Columns:  ds.Columns,
		HasGeo:   ds.HasGeo(),
	}
}
