package evo

import "errors"

var (
	// ErrConfiguration marks invalid engine wiring: bad weights, bad
	// tournament rounds, missing collaborators. Never retried.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInvalidOffspring is signalled by an operator or validator when a
	// candidate genome is unusable. Recovered locally by the retry budget.
	ErrInvalidOffspring = errors.New("offspring invalid")

	// ErrTrainingFailure marks a fatal error that aborted a generation
	// before anything was committed.
	ErrTrainingFailure = errors.New("training failure")

	// ErrTrainingFinished is returned by Iterate after FinishTraining.
	ErrTrainingFinished = errors.New("training already finished")

	// ErrPopulationNotSeeded is returned by Iterate on an empty population.
	ErrPopulationNotSeeded = errors.New("population not seeded")
)
