package email

// PreviewData contains sample template data for local preview/testing.
//
// It maps:
//
//	templateName -> (templateVariableName -> exampleValue)
var PreviewData = map[Template]map[string]string{
	TemplateMenuChanged: {
		"Action": "수정",
		"MenuID": "1",
		"Name":   "Latte",
		"Price":  "4000",
	},
}
