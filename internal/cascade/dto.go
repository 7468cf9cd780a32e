package cascade

type transitionRequest struct {
	Kind   string `json:"kind"`
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type assignRecruiterRequest struct {
	RecruiterID int64 `json:"recruiterId"`
}

type onboardingTaskRequest struct {
	Completed *bool `json:"completed"`
}

type departmentHeadRequest struct {
	Head string `json:"head"`
}

type performanceRequest struct {
	Delta int `json:"delta"`
}
