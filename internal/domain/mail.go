package domain

// RunFinishedMailData: 求解结束后发给创建者的通知内容
// Objective 由 worker 提前格式化，没有可行解时为说明文字
type RunFinishedMailData struct {
	FullName     string `json:"fullName"`
	DatasetName  string `json:"datasetName"`
	RunID        int64  `json:"runID"`
	Status       string `json:"status"`
	SolverStatus string `json:"solverStatus"`
	Objective    string `json:"objective"`
}
