package database

/*----------- DirectionEnum -----------*/

type DirectionEnum string

const (
	ASC  DirectionEnum = "asc"
	DESC DirectionEnum = "desc"
)

func (e DirectionEnum) ToString() string {
	return string(e)
}

func (e DirectionEnum) IsValid() bool {
	switch e {
	case ASC, DESC:
		return true
	}
	return false
}

// OrderBy renders an ORDER BY clause for column, DESC when the direction is invalid.
func (e DirectionEnum) OrderBy(column string) string {
	if !e.IsValid() {
		e = DESC
	}
	return column + " " + e.ToString()
}

/*----------- DriverEnum -----------*/

type DriverEnum string

const (
	POSTGRES DriverEnum = "postgres"
	MYSQL    DriverEnum = "mysql"
)

func (e DriverEnum) ToString() string {
	return string(e)
}

func (e DriverEnum) IsValid() bool {
	switch e {
	case POSTGRES, MYSQL:
		return true
	}
	return false
}
