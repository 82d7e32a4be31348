package licensing

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// OutcomeKind enumerates the per-repository results of a licensing run.
type OutcomeKind string

// Supported outcome kinds.
const (
	OutcomeCloned         OutcomeKind = OutcomeKind("cloned")
	OutcomeAlreadyPresent OutcomeKind = OutcomeKind("already-present")
	OutcomeLicenseCopied  OutcomeKind = OutcomeKind("license-copied")
	OutcomeCommitted      OutcomeKind = OutcomeKind("committed")
	OutcomePushed         OutcomeKind = OutcomeKind("pushed")
	OutcomeSkipped        OutcomeKind = OutcomeKind("skipped")
	OutcomeFailed         OutcomeKind = OutcomeKind("failed")
)

const (
	reportRepositoryHeaderConstant = "Repository"
	reportOutcomeHeaderConstant    = "Outcome"
	reportActionsHeaderConstant    = "Actions"
	reportDetailHeaderConstant     = "Detail"
	reportActionSeparatorConstant  = " → "
	reportFailureLineTemplate      = "FAILED: %s: %s\n"
	unnamedRepositoryLabelConstant = "(unnamed)"
)

// Action records one step taken, or planned, for a repository.
type Action struct {
	Kind    OutcomeKind
	Detail  string
	Planned bool
}

// Result collects the action trail and final outcome for one repository.
type Result struct {
	Repository string
	Actions    []Action
	Error      error
}

// Outcome reports failed when any step failed and otherwise the kind of the last action.
func (result Result) Outcome() OutcomeKind {
	if result.Error != nil {
		return OutcomeFailed
	}
	if len(result.Actions) == 0 {
		return OutcomeSkipped
	}
	return result.Actions[len(result.Actions)-1].Kind
}

// ActionKinds lists the kinds in the trail in order.
func (result Result) ActionKinds() []OutcomeKind {
	kinds := make([]OutcomeKind, 0, len(result.Actions))
	for _, action := range result.Actions {
		kinds = append(kinds, action.Kind)
	}
	return kinds
}

func (result Result) displayName() string {
	if len(strings.TrimSpace(result.Repository)) == 0 {
		return unnamedRepositoryLabelConstant
	}
	return result.Repository
}

// Report aggregates results for a whole batch in processing order.
type Report struct {
	Results []Result
}

// Failures returns the results whose outcome is failed.
func (report Report) Failures() []Result {
	failures := make([]Result, 0)
	for _, result := range report.Results {
		if result.Outcome() == OutcomeFailed {
			failures = append(failures, result)
		}
	}
	return failures
}

// Err returns BatchFailedError when any repository failed.
func (report Report) Err() error {
	failures := report.Failures()
	if len(failures) == 0 {
		return nil
	}
	names := make([]string, 0, len(failures))
	for _, failure := range failures {
		names = append(names, failure.displayName())
	}
	return BatchFailedError{FailedRepositories: names}
}

// Render writes the summary table followed by one FAILED line per failed repository.
func (report Report) Render(writer io.Writer) {
	if writer == nil {
		return
	}

	table := tablewriter.NewWriter(writer)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{reportRepositoryHeaderConstant, reportOutcomeHeaderConstant, reportActionsHeaderConstant, reportDetailHeaderConstant})
	for _, result := range report.Results {
		table.Append([]string{result.displayName(), string(result.Outcome()), joinActionKinds(result.Actions), summarizeResult(result)})
	}
	table.Render()

	for _, failure := range report.Failures() {
		fmt.Fprintf(writer, reportFailureLineTemplate, failure.displayName(), failure.Error)
	}
}

func joinActionKinds(actions []Action) string {
	kindLabels := make([]string, 0, len(actions))
	for _, action := range actions {
		kindLabels = append(kindLabels, string(action.Kind))
	}
	return strings.Join(kindLabels, reportActionSeparatorConstant)
}

func summarizeResult(result Result) string {
	if result.Error != nil {
		return result.Error.Error()
	}
	if len(result.Actions) == 0 {
		return ""
	}
	return result.Actions[len(result.Actions)-1].Detail
}
