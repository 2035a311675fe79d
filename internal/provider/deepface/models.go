package deepface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img              string `json:"img"`              // base64 data URL
	Model            string `json:"model_name"`       // "Facenet512", "VGG-Face", etc
	Detector         string `json:"detector_backend"` // "retinaface", "mtcnn", etc
	EnforceDetection bool   `json:"enforce_detection"`
	Align            bool   `json:"align"`
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

type RepresentResult struct {
	Embedding      []float64  `json:"embedding"`
	FacialArea     FacialArea `json:"facial_area"`
	FaceConfidence float64    `json:"face_confidence"`
}

type FacialArea struct {
	X        int   `json:"x"`
	Y        int   `json:"y"`
	W        int   `json:"w"`
	H        int   `json:"h"`
	LeftEye  []int `json:"left_eye,omitempty"`
	RightEye []int `json:"right_eye,omitempty"`
}

// AnalyzeRequest for POST /analyze
type AnalyzeRequest struct {
	Img              string   `json:"img"`
	Actions          []string `json:"actions"` // ["age", "gender", "emotion", "race"]
	Detector         string   `json:"detector_backend"`
	EnforceDetection bool     `json:"enforce_detection"`
}

// AnalyzeResponse from POST /analyze
type AnalyzeResponse struct {
	Results []AnalyzeResult `json:"results"`
}

// AnalyzeResult carries scores as percentages (0-100).
type AnalyzeResult struct {
	Region          FacialArea         `json:"region"`
	FaceConfidence  float64            `json:"face_confidence"`
	Age             float64            `json:"age"`
	Gender          map[string]float64 `json:"gender,omitempty"`
	DominantEmotion string             `json:"dominant_emotion,omitempty"`
	Emotion         map[string]float64 `json:"emotion,omitempty"`
	DominantRace    string             `json:"dominant_race,omitempty"`
	Race            map[string]float64 `json:"race,omitempty"`
}

// Analysis actions understood by /analyze
const (
	ActionAge     = "age"
	ActionEmotion = "emotion"
	ActionRace    = "race"
)
