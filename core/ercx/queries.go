package ercx

const createReportMutation = `
mutation CreateReportMutation($standard: TestSuiteStandard!, $address: String!, $network: Int!) {
    createReport(input: {
        address: $address,
        forceCreate: false,
        network: $network,
        standard: $standard
    }) {
        id
        tokenId
        standard
        progress
        createdAt
        executeTestsTask {
            id
            reportId
            status
        }
    }
}`

type createReportResponse struct {
	CreateReport *struct {
		ID               string `json:"id"`
		TokenID          string `json:"tokenId"`
		Standard         string `json:"standard"`
		Progress         int    `json:"progress"`
		CreatedAt        string `json:"createdAt"`
		ExecuteTestsTask *struct {
			ID       string `json:"id"`
			ReportID string `json:"reportId"`
			Status   string `json:"status"`
		} `json:"executeTestsTask"`
	} `json:"createReport"`
}
