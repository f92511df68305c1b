package models

import "time"

// Load ratio status buckets.
const (
	LoadStatusLow          = "low"
	LoadStatusMaintenance  = "maintenance"
	LoadStatusOptimal      = "optimal"
	LoadStatusBuilding     = "building"
	LoadStatusOverreaching = "overreaching"
	LoadStatusDanger       = "danger"
	LoadStatusNoBaseline   = "no_baseline"
)

// LoadSummary is the acute:chronic workload view.
type LoadSummary struct {
	Ratio       float64   `json:"ratio"`
	Status      string    `json:"status"`
	AcuteLoad   float64   `json:"acuteLoad"`
	ChronicLoad float64   `json:"chronicLoad"`
	Monotony    float64   `json:"monotony"`
	Strain      float64   `json:"strain"`
	HasBaseline bool      `json:"hasBaseline"`
	AnchorDate  time.Time `json:"anchorDate"`
}

// Readiness buckets shared by every performance view.
const (
	ReadinessExcellent = "excellent"
	ReadinessGood      = "good"
	ReadinessModerate  = "moderate"
	ReadinessPoor      = "poor"
)

// FitnessFatigueState is the two-compartment model readout.
type FitnessFatigueState struct {
	CurrentFitness     float64   `json:"currentFitness"`
	CurrentFatigue     float64   `json:"currentFatigue"`
	NetPerformance     float64   `json:"netPerformance"`
	Readiness          string    `json:"readiness"`
	SessionsConsidered int       `json:"sessionsConsidered"`
	LastSession        time.Time `json:"lastSession"`
	AsOf               time.Time `json:"asOf"`
}

// ExerciseFatigueFactor is the shrunk per-exercise fatigue estimate.
// RawFatigueRate is nil when the exercise never had two valid sets in one session.
type ExerciseFatigueFactor struct {
	BaselineFatigueRate float64  `json:"baselineFatigueRate"`
	RawFatigueRate      *float64 `json:"rawFatigueRate,omitempty"`
	Variance            float64  `json:"variance"`
	SampleSize          int      `json:"sampleSize"`
	Sessions            int      `json:"sessions"`
}

// HierarchicalFatigueModel holds user traits and per-exercise factors.
type HierarchicalFatigueModel struct {
	UserFatigueResistance   float64                          `json:"userFatigueResistance"`
	UserRecoveryRate        float64                          `json:"userRecoveryRate"`
	UserConfidence          float64                          `json:"userConfidence"`
	PriorFatigueRate        float64                          `json:"priorFatigueRate"`
	PriorVariance           float64                          `json:"priorVariance"`
	TotalSets               int                              `json:"totalSets"`
	SessionCount            int                              `json:"sessionCount"`
	ExerciseSpecificFactors map[string]ExerciseFatigueFactor `json:"exerciseSpecificFactors"`
}

// ExerciseRate is one row of the per-exercise fatigue listing.
type ExerciseRate struct {
	ExerciseID          string  `json:"exerciseId"`
	ExerciseName        string  `json:"exerciseName"`
	BaselineFatigueRate float64 `json:"baselineFatigueRate"`
	Variance            float64 `json:"variance"`
	SampleSize          int     `json:"sampleSize"`
}

// Recovery status buckets.
const (
	RecoveryFresh      = "fresh"
	RecoveryRecovering = "recovering"
	RecoveryFatigued   = "fatigued"
)

// NeverTrainedDays marks a muscle group with no training history.
const NeverTrainedDays = 999

// RecoveryProfile is the readiness of one muscle group.
type RecoveryProfile struct {
	MuscleGroup          string  `json:"muscleGroup"`
	DaysSinceLastTrained float64 `json:"daysSinceLastTrained"`
	ReadinessScore       float64 `json:"readinessScore"`
	Status               string  `json:"status"`
}

// RecoverySummary aggregates all muscle-group profiles.
type RecoverySummary struct {
	Profiles          []RecoveryProfile `json:"profiles"`
	OverallReadiness  float64           `json:"overallReadiness"`
	OverallStatus     string            `json:"overallStatus"`
	LimitingGroup     string            `json:"limitingGroup,omitempty"`
	UnmappedExercises []string          `json:"unmappedExercises,omitempty"`
}

// SFR interpretation buckets.
const (
	SFRExcellent = "excellent"
	SFRGood      = "good"
	SFRModerate  = "moderate"
	SFRPoor      = "poor"
	SFRExcessive = "excessive"
)

// SFRInsight is one exercise's stimulus-to-fatigue summary.
type SFRInsight struct {
	ExerciseID     string  `json:"exerciseId"`
	ExerciseName   string  `json:"exerciseName"`
	AvgSFR         float64 `json:"avgSFR"`
	BestSFR        float64 `json:"bestSFR"`
	WorstSFR       float64 `json:"worstSFR"`
	TimesPerformed int     `json:"timesPerformed"`
	Interpretation string  `json:"interpretation"`
}

// IntensityBand counts valid sets in one RPE band.
type IntensityBand struct {
	Band  string  `json:"band"`
	Sets  int     `json:"sets"`
	Share float64 `json:"share"`
}

// PersonalStats summarises the reconciled history.
type PersonalStats struct {
	TotalSessions         int             `json:"totalSessions"`
	TotalSets             int             `json:"totalSets"`
	TotalVolume           float64         `json:"totalVolume"`
	AvgSessionVolume      float64         `json:"avgSessionVolume"`
	DistinctExercises     int             `json:"distinctExercises"`
	FirstSession          time.Time       `json:"firstSession"`
	LastSession           time.Time       `json:"lastSession"`
	SessionsLast7Days     int             `json:"sessionsLast7Days"`
	SessionsLast28Days    int             `json:"sessionsLast28Days"`
	AvgSessionsPerWeek    float64         `json:"avgSessionsPerWeek"`
	FailureRate           float64         `json:"failureRate"`
	IntensityDistribution []IntensityBand `json:"intensityDistribution"`
}

// SourceStatus reports how one session source fared during a snapshot.
type SourceStatus struct {
	Name     string `json:"name"`
	Sessions int    `json:"sessions"`
	Error    string `json:"error,omitempty"`
}

// AnalyticsSnapshot bundles every requested analytics view. Views that were
// not requested or lacked data are nil.
type AnalyticsSnapshot struct {
	UserID            string                    `json:"userId"`
	GeneratedAt       time.Time                 `json:"generatedAt"`
	SessionCount      int                       `json:"sessionCount"`
	Fingerprint       string                    `json:"fingerprint,omitempty"`
	Sources           []SourceStatus            `json:"sources"`
	Insufficient      []string                  `json:"insufficient,omitempty"`
	ACWR              *LoadSummary              `json:"acwr,omitempty"`
	FitnessFatigue    *FitnessFatigueState      `json:"fitnessFatigue,omitempty"`
	HierarchicalModel *HierarchicalFatigueModel `json:"hierarchicalModel,omitempty"`
	PersonalStats     *PersonalStats            `json:"personalStats,omitempty"`
	ExerciseRates     []ExerciseRate            `json:"exerciseRates,omitempty"`
	RecoveryProfiles  *RecoverySummary          `json:"recoveryProfiles,omitempty"`
	SFRInsights       []SFRInsight              `json:"sfrInsights,omitempty"`
}
