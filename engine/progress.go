package engine

import (
	"math"

	courseModels "lms/models/course"
)

// ModuleSnapshot is the gating view of one module: its gradeable
// (task/quiz) item ids in unlock order.
type ModuleSnapshot struct {
	ModuleID   uint
	Title      string
	OrderIndex int
	ItemIDs    []uint
}

// CourseSnapshot is the immutable course structure the calculator
// works on, restricted to the content version the enrollment pinned.
type CourseSnapshot struct {
	CourseID    uint
	Version     int
	Modules     []ModuleSnapshot // sorted by OrderIndex
	HasCapstone bool
}

// ModuleProgress is the derived per-module view.
type ModuleProgress struct {
	ModuleID       uint   `json:"module_id"`
	Title          string `json:"title"`
	OrderIndex     int    `json:"order_index"`
	TotalItems     int    `json:"total_items"`
	CompletedItems int    `json:"completed_items"`
	Completed      bool   `json:"completed"`
	Accessible     bool   `json:"accessible"`
}

// ProgressView is the full derived view for one enrollment.
type ProgressView struct {
	ProgressPercentage  int              `json:"progress_percentage"`
	Modules             []ModuleProgress `json:"modules"`
	CapstoneAccessible  bool             `json:"capstone_accessible"`
	CertificateIssuable bool             `json:"certificate_issuable"`
	UnmetConditions     []string         `json:"unmet_conditions,omitempty"`
}

// ComputeProgress derives the accessible/completed view of a course
// for one enrollment. Pure function of the course snapshot, the
// completed item set, the payment status and whether the capstone has
// been graded. Modules unlock strictly in order: module i is
// accessible iff every earlier module is fully completed. Payment
// gates certification only, never learning access.
func ComputeProgress(snap CourseSnapshot, completed map[uint]bool, paymentStatus string, capstoneGraded bool) ProgressView {
	view := ProgressView{Modules: make([]ModuleProgress, 0, len(snap.Modules))}

	totalItems := 0
	completedItems := 0
	allPrevComplete := true
	for _, mod := range snap.Modules {
		done := 0
		for _, itemID := range mod.ItemIDs {
			if completed[itemID] {
				done++
			}
		}
		mp := ModuleProgress{
			ModuleID:       mod.ModuleID,
			Title:          mod.Title,
			OrderIndex:     mod.OrderIndex,
			TotalItems:     len(mod.ItemIDs),
			CompletedItems: done,
			Completed:      done == len(mod.ItemIDs),
			Accessible:     allPrevComplete,
		}
		view.Modules = append(view.Modules, mp)

		totalItems += len(mod.ItemIDs)
		completedItems += done
		allPrevComplete = allPrevComplete && mp.Completed
	}

	if totalItems > 0 {
		view.ProgressPercentage = int(math.Round(float64(completedItems) / float64(totalItems) * 100))
	}

	// allPrevComplete now means every module is fully complete
	view.CapstoneAccessible = allPrevComplete && totalItems > 0 && snap.HasCapstone

	// A course without a capstone has no capstone condition to meet.
	view.UnmetConditions = unmetCertificateConditions(view.ProgressPercentage, capstoneGraded || !snap.HasCapstone, paymentStatus)
	view.CertificateIssuable = len(view.UnmetConditions) == 0

	return view
}

// unmetCertificateConditions returns every certificate condition not
// yet satisfied. All three are independently necessary.
func unmetCertificateConditions(progressPercentage int, capstoneGraded bool, paymentStatus string) []string {
	var unmet []string
	if progressPercentage != 100 {
		unmet = append(unmet, ConditionProgressComplete)
	}
	if !capstoneGraded {
		unmet = append(unmet, ConditionCapstoneGraded)
	}
	if paymentStatus != courseModels.PaymentStatusFullyPaid {
		unmet = append(unmet, ConditionFullyPaid)
	}
	return unmet
}

// ModuleAccessible reports whether the given module is unlocked for
// the completed set.
func ModuleAccessible(snap CourseSnapshot, completed map[uint]bool, moduleID uint) bool {
	for _, mod := range snap.Modules {
		if mod.ModuleID == moduleID {
			return true
		}
		for _, itemID := range mod.ItemIDs {
			if !completed[itemID] {
				return false
			}
		}
	}
	return false
}
