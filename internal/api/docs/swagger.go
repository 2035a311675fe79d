package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// AnalyzeImageRequest is the body of POST /api/analyze-image
type AnalyzeImageRequest struct {
	ImageData string `json:"image_data" example:"data:image/jpeg;base64,/9j/4AAQSkZJRg..."`
	SessionID string `json:"session_id,omitempty" example:"session-123"`
}

// Attribute is one classifier output
type Attribute struct {
	Value      string  `json:"value" example:"Happy"`
	Confidence float64 `json:"confidence" example:"0.87"`
	Fallback   bool    `json:"fallback" example:"false"`
}

// AgeAttribute is the age classifier output
type AgeAttribute struct {
	Value      int     `json:"value" example:"29"`
	Confidence float64 `json:"confidence" example:"0.7"`
	Fallback   bool    `json:"fallback" example:"false"`
}

type BoundingBox struct {
	X      int `json:"x" example:"120"`
	Y      int `json:"y" example:"80"`
	Width  int `json:"width" example:"160"`
	Height int `json:"height" example:"190"`
}

type Point struct {
	X int `json:"x" example:"160"`
	Y int `json:"y" example:"140"`
}

// FaceResult is one analysed face
type FaceResult struct {
	FaceID         int          `json:"face_id" example:"1"`
	BoundingBox    BoundingBox  `json:"bbox"`
	Confidence     float64      `json:"confidence" example:"0.96"`
	Age            AgeAttribute `json:"age"`
	Race           Attribute    `json:"race"`
	Emotion        Attribute    `json:"emotion"`
	Landmarks      []Point      `json:"landmarks"`
	LandmarksCount int          `json:"landmarks_count" example:"5"`
}

type ExifInfo struct {
	CameraMake  string `json:"camera_make,omitempty" example:"Canon"`
	CameraModel string `json:"camera_model,omitempty" example:"EOS 80D"`
	TakenAt     string `json:"taken_at,omitempty" example:"2024-01-01T12:00:00Z"`
	Orientation int    `json:"orientation,omitempty" example:"1"`
}

// ImageInfo describes the analysed image; upload fields are omitted for base64 input
type ImageInfo struct {
	Format      string    `json:"format,omitempty" example:"jpeg"`
	Filename    string    `json:"filename,omitempty" example:"group.jpg"`
	Size        int64     `json:"size,omitempty" example:"245812"`
	ContentType string    `json:"content_type,omitempty" example:"image/jpeg"`
	Width       int       `json:"width,omitempty" example:"640"`
	Height      int       `json:"height,omitempty" example:"480"`
	Exif        *ExifInfo `json:"exif,omitempty"`
	FacesFound  int       `json:"faces_found" example:"2"`
}

type AnalysisResponse struct {
	ID               string       `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Timestamp        string       `json:"timestamp" example:"2024-01-01T12:00:00Z"`
	FacesDetected    int          `json:"faces_detected" example:"2"`
	TotalConfidence  float64      `json:"total_confidence" example:"1.91"`
	Results          []FaceResult `json:"results"`
	ProcessingTimeMs float64      `json:"processing_time_ms" example:"184.2"`
	ImageInfo        ImageInfo    `json:"image_info"`
}

type FaceRecord struct {
	FaceIndex         int         `json:"face_index" example:"0"`
	BoundingBox       BoundingBox `json:"bbox"`
	Confidence        float64     `json:"confidence" example:"0.96"`
	Age               int         `json:"age" example:"29"`
	AgeConfidence     float64     `json:"age_confidence" example:"0.7"`
	Race              string      `json:"race" example:"Asian"`
	RaceConfidence    float64     `json:"race_confidence" example:"0.64"`
	Emotion           string      `json:"emotion" example:"Happy"`
	EmotionConfidence float64     `json:"emotion_confidence" example:"0.87"`
	Landmarks         []Point     `json:"landmarks"`
}

type AnalysisHistory struct {
	ID               string       `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Timestamp        string       `json:"timestamp" example:"2024-01-01T12:00:00Z"`
	FacesCount       int          `json:"faces_count" example:"2"`
	AvgAge           float64      `json:"avg_age" example:"31.5"`
	Emotions         []string     `json:"emotions" example:"Happy,Neutral"`
	Races            []string     `json:"races" example:"Asian,White"`
	ProcessingTimeMs float64      `json:"processing_time_ms" example:"184.2"`
	SessionID        string       `json:"session_id" example:"session-123"`
	Faces            []FaceRecord `json:"faces,omitempty"`
}

type ClearHistoryResponse struct {
	DeletedCount int64  `json:"deleted_count" example:"12"`
	Message      string `json:"message" example:"Cleared 12 history entries"`
}

type AnalyticsSummary struct {
	TotalAnalyses       int            `json:"total_analyses" example:"42"`
	TotalFaces          int            `json:"total_faces" example:"57"`
	AvgAge              float64        `json:"avg_age" example:"33.4"`
	EmotionDistribution map[string]int `json:"emotion_distribution"`
	RaceDistribution    map[string]int `json:"race_distribution"`
	AvgProcessingTime   float64        `json:"avg_processing_time" example:"150.25"`
}

type ModelStatus struct {
	Name    string `json:"name" example:"age_estimation"`
	Backend string `json:"backend" example:"deepface"`
	Loaded  bool   `json:"loaded" example:"true"`
}

type ModelsInfoResponse struct {
	FaceDetection      ModelStatus `json:"face_detection"`
	AgeEstimation      ModelStatus `json:"age_estimation"`
	EmotionRecognition ModelStatus `json:"emotion_recognition"`
	RaceClassification ModelStatus `json:"race_classification"`
	Landmarks          ModelStatus `json:"landmarks"`
	Device             string      `json:"device" example:"cpu"`
	Status             string      `json:"status" example:"loaded"`
}

type HealthResponse struct {
	Status            string `json:"status" example:"healthy"`
	Timestamp         string `json:"timestamp" example:"2024-01-01T12:00:00Z"`
	ModelsLoaded      bool   `json:"models_loaded" example:"true"`
	DatabaseConnected bool   `json:"database_connected" example:"true"`
}

type RootResponse struct {
	Message string `json:"message" example:"Smart Face Analytics API is running!"`
	Status  string `json:"status" example:"healthy"`
}

type StatusCheckRequest struct {
	ClientName string `json:"client_name" example:"dashboard"`
}

type StatusCheck struct {
	ID         string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	ClientName string `json:"client_name" example:"dashboard"`
	Timestamp  string `json:"timestamp" example:"2024-01-01T12:00:00Z"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

var internalError = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Smart Face Analytics API",
		Version:     "v1.0.0",
		Description: "Detects faces in images and estimates age, emotion and demographic category per face, with analysis history and aggregate analytics",
		Host:        "localhost:8001",
		Path:        "/api",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /api/analyze-image
		endpoint.New(
			endpoint.POST,
			"/analyze-image",
			endpoint.WithTags("Analysis"),
			endpoint.WithSummary("Analyse a base64 image"),
			endpoint.WithDescription("Detects every face in a base64 encoded image (a data URL prefix is accepted). Undecodable images yield zero faces. Analyses with at least one face are stored in the history."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(AnalyzeImageRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AnalysisResponse{}, "200", "Analysis completed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "ANALYSIS_FAILED", Message: "Analysis failed"}, "500", "Internal Server Error"),
			}),
		),

		// POST /api/analyze-upload
		endpoint.New(
			endpoint.POST,
			"/analyze-upload",
			endpoint.WithTags("Analysis"),
			endpoint.WithSummary("Analyse an uploaded image"),
			endpoint.WithDescription("Multipart form with a required \"file\" part and an optional \"session_id\" field. The image_info of the response carries the file name, size, content type, dimensions and EXIF metadata."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AnalysisResponse{}, "200", "Analysis completed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NOT_AN_IMAGE", Message: "File must be an image"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "IMAGE_TOO_LARGE", Message: "Image exceeds the upload limit"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "ANALYSIS_FAILED", Message: "Analysis failed"}, "500", "Internal Server Error"),
			}),
		),

		// GET /api/analysis-history
		endpoint.New(
			endpoint.GET,
			"/analysis-history",
			endpoint.WithTags("History"),
			endpoint.WithSummary("List analysis history"),
			endpoint.WithDescription("Returns stored analyses newest first"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("session_id", parameter.Query, parameter.WithDescription("Only entries of this session")),
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum number of entries (default: 100, max: 1000)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]AnalysisHistory{}, "200", "History entries"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "HISTORY_FAILED", Message: "Failed to fetch history"}, "500", "Internal Server Error"),
			}),
		),

		// DELETE /api/analysis-history
		endpoint.New(
			endpoint.DELETE,
			"/analysis-history",
			endpoint.WithTags("History"),
			endpoint.WithSummary("Clear analysis history"),
			endpoint.WithDescription("Deletes every entry of a session, or the whole history when no session is given"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("session_id", parameter.Query, parameter.WithDescription("Only entries of this session")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ClearHistoryResponse{}, "200", "History cleared"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "HISTORY_FAILED", Message: "Failed to clear history"}, "500", "Internal Server Error"),
			}),
		),

		// GET /api/analysis-history/{id}
		endpoint.New(
			endpoint.GET,
			"/analysis-history/{id}",
			endpoint.WithTags("History"),
			endpoint.WithSummary("Get one analysis"),
			endpoint.WithDescription("Returns a history entry with its per-face rows"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Analysis ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AnalysisHistory{}, "200", "History entry"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "HISTORY_NOT_FOUND", Message: "Analysis not found"}, "404", "Not Found"),
				internalError,
			}),
		),

		// DELETE /api/analysis-history/{id}
		endpoint.New(
			endpoint.DELETE,
			"/analysis-history/{id}",
			endpoint.WithTags("History"),
			endpoint.WithSummary("Delete one analysis"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Analysis ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "HISTORY_NOT_FOUND", Message: "Analysis not found"}, "404", "Not Found"),
				internalError,
			}),
		),

		// GET /api/analytics/summary
		endpoint.New(
			endpoint.GET,
			"/analytics/summary",
			endpoint.WithTags("Analytics"),
			endpoint.WithSummary("Aggregate analytics"),
			endpoint.WithDescription("Totals, average age, emotion and category distributions and average processing time over the newest 1000 entries"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("session_id", parameter.Query, parameter.WithDescription("Only entries of this session")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AnalyticsSummary{}, "200", "Summary"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "SUMMARY_FAILED", Message: "Failed to compute summary"}, "500", "Internal Server Error"),
			}),
		),

		// GET /api/models/info
		endpoint.New(
			endpoint.GET,
			"/models/info",
			endpoint.WithTags("System"),
			endpoint.WithSummary("Model slots"),
			endpoint.WithDescription("Backend and load state of every pipeline slot as decided at startup"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ModelsInfoResponse{}, "200", "Model information"),
			}),
		),

		// GET /api/health
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("System"),
			endpoint.WithSummary("Health check"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service health"),
			}),
		),

		// GET /api/
		endpoint.New(
			endpoint.GET,
			"/",
			endpoint.WithTags("System"),
			endpoint.WithSummary("Liveness message"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RootResponse{}, "200", "Service is running"),
			}),
		),

		// POST /api/status
		endpoint.New(
			endpoint.POST,
			"/status",
			endpoint.WithTags("Status"),
			endpoint.WithSummary("Record a status check"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(StatusCheckRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StatusCheck{}, "200", "Status check recorded"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				internalError,
			}),
		),

		// GET /api/status
		endpoint.New(
			endpoint.GET,
			"/status",
			endpoint.WithTags("Status"),
			endpoint.WithSummary("List status checks"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]StatusCheck{}, "200", "Status checks"),
			}),
		),

		// GET /api/ws - WebSocket live feed
		endpoint.New(
			endpoint.GET,
			"/ws",
			endpoint.WithTags("Realtime"),
			endpoint.WithSummary("Live analysis feed"),
			endpoint.WithDescription("WebSocket upgrade. Streams analysis.completed, history.deleted and history.cleared events, filtered by session_id when given."),
			endpoint.WithParams(
				parameter.StrParam("session_id", parameter.Query, parameter.WithDescription("Only events of this session")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "101", "Switching Protocols"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "HTTP_ERROR", Message: "Upgrade Required"}, "426", "Upgrade Required"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
