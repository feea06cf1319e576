package dashboard

import (
	"context"
	"fmt"
)

// Feature names a dashboard capability that may not be available yet.
type Feature string

const (
	FeatureJoinByCode      Feature = "join_by_code"
	FeatureExplore         Feature = "explore"
	FeatureQuizOfTheDay    Feature = "quiz_of_the_day"
	FeatureCreateQuiz      Feature = "create_quiz"
	FeatureProfileSettings Feature = "profile_settings"
	FeatureStats           Feature = "stats"
)

// FeatureUnavailableError is returned for features that are not implemented.
type FeatureUnavailableError struct {
	Feature Feature
}

func (e *FeatureUnavailableError) Error() string {
	return fmt.Sprintf("feature %s is not available yet", e.Feature)
}

// Features reports which dashboard features a deployment offers.
type Features interface {
	Check(ctx context.Context, feature Feature) error
}

// Unavailable reports every feature as not implemented.
type Unavailable struct{}

func (Unavailable) Check(_ context.Context, feature Feature) error {
	return &FeatureUnavailableError{Feature: feature}
}
