package authform

// Field はフォームに描画する入力項目。
type Field struct {
	Name        string
	Label       string
	Placeholder string
	Type        string // input要素のtype属性
}

// FieldRow は横並びで描画する項目のまとまり。
type FieldRow []Field

var identityRows = []FieldRow{
	{
		{Name: "firstName", Label: "First Name", Placeholder: "Enter your first name", Type: "text"},
		{Name: "lastName", Label: "Last Name", Placeholder: "Enter your last name", Type: "text"},
	},
	{
		{Name: "address1", Label: "Address", Placeholder: "Enter your specific address", Type: "text"},
	},
	{
		{Name: "city", Label: "City", Placeholder: "Enter your city", Type: "text"},
	},
	{
		{Name: "state", Label: "State", Placeholder: "eg: KL", Type: "text"},
		{Name: "postalCode", Label: "Postal Code", Placeholder: "eg: 15400", Type: "text"},
	},
	{
		{Name: "dateOfBirth", Label: "Date of Birth", Placeholder: "dd-mm-yyyy", Type: "text"},
		{Name: "ssn", Label: "SSN", Placeholder: "eg: 1234", Type: "text"},
	},
}

var credentialRows = []FieldRow{
	{
		{Name: "email", Label: "Email", Placeholder: "Enter your email", Type: "email"},
	},
	{
		{Name: "password", Label: "Password", Placeholder: "Enter your password", Type: "password"},
	},
}

// Rows はモードに応じて描画する項目を返す。
// サインアップでは本人確認項目の後にメールアドレスとパスワードが続く。
func Rows(mode Mode) []FieldRow {
	rows := make([]FieldRow, 0, len(identityRows)+len(credentialRows))
	if mode == ModeSignUp {
		rows = append(rows, identityRows...)
	}
	return append(rows, credentialRows...)
}
